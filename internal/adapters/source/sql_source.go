package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nathanael1721/Final-Project/internal/adapters/sqlstore"
	"github.com/Nathanael1721/Final-Project/internal/domain"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// SQLSource reads raw readings from the local store.
type SQLSource struct {
	db      *sql.DB
	dialect sqlstore.Dialect
}

func NewSQLSource(db *sql.DB, dialect sqlstore.Dialect) *SQLSource {
	return &SQLSource{db: db, dialect: dialect}
}

// ReadSince returns rows with timestamp strictly after watermark, oldest first.
func (s *SQLSource) ReadSince(ctx context.Context, stream domain.Stream, watermark time.Time) ([]domain.Reading, error) {
	if err := stream.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.SelectSince(stream.Name, stream.ValueColumn), watermark.UTC())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", stream.Name, err)
	}
	defer rows.Close()

	out := make([]domain.Reading, 0)
	for rows.Next() {
		var (
			rawTS any
			id    int64
			value sql.NullFloat64
		)
		if err := rows.Scan(&rawTS, &id, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", stream.Name, err)
		}
		ts, ok, err := sqlstore.ParseTime(rawTS)
		if err != nil {
			return nil, fmt.Errorf("scan %s id=%d: %w", stream.Name, id, err)
		}
		if !ok {
			continue
		}

		r := domain.Reading{Timestamp: ts, ID: id}
		if value.Valid {
			r.Value = domain.Float(value.Float64)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", stream.Name, err)
	}
	return out, nil
}

var _ ports.SourceReader = (*SQLSource)(nil)
