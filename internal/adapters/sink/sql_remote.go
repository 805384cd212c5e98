package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nathanael1721/Final-Project/internal/adapters/sqlstore"
	"github.com/Nathanael1721/Final-Project/internal/domain"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// SQLRemote upserts resampled points into the remote store. Each stream lives
// in its own table keyed on the bucket timestamp.
type SQLRemote struct {
	db      *sql.DB
	dialect sqlstore.Dialect
}

func NewSQLRemote(db *sql.DB, dialect sqlstore.Dialect) *SQLRemote {
	return &SQLRemote{db: db, dialect: dialect}
}

func (r *SQLRemote) Name() string { return "sql/" + r.dialect.Driver() }

// LatestTimestamp reports the remote watermark. Any failure yields the
// sentinel so the caller re-delivers instead of skipping data.
func (r *SQLRemote) LatestTimestamp(ctx context.Context, stream domain.Stream) (time.Time, error) {
	if err := stream.Validate(); err != nil {
		return domain.SentinelWatermark, err
	}

	var raw any
	if err := r.db.QueryRowContext(ctx, r.dialect.MaxTimestamp(stream.Name)).Scan(&raw); err != nil {
		return domain.SentinelWatermark, fmt.Errorf("max timestamp %s: %w", stream.Name, err)
	}
	ts, ok, err := sqlstore.ParseTime(raw)
	if err != nil {
		return domain.SentinelWatermark, fmt.Errorf("max timestamp %s: %w", stream.Name, err)
	}
	if !ok {
		return domain.SentinelWatermark, nil
	}
	return ts, nil
}

// Upsert writes all points in one transaction. Rows are sent one statement
// at a time: a multi-row ON CONFLICT statement fails on postgres when the
// same bucket appears twice, which replayed buffers can contain.
func (r *SQLRemote) Upsert(ctx context.Context, stream domain.Stream, points []domain.ResampledPoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	if err := stream.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", stream.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := r.dialect.Upsert(stream.Name, stream.ValueColumn)
	for _, p := range points {
		if _, err = tx.ExecContext(ctx, query, p.Timestamp.UTC(), p.ID, p.Value); err != nil {
			return fmt.Errorf("upsert %s ts=%s: %w", stream.Name, p.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", stream.Name, err)
	}
	return nil
}

func (r *SQLRemote) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

var (
	_ ports.RemoteWriter = (*SQLRemote)(nil)
	_ ports.Pinger       = (*SQLRemote)(nil)
)
