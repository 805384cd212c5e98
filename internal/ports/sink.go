package ports

import (
	"context"
	"time"

	"github.com/Nathanael1721/Final-Project/internal/domain"
)

// RemoteWriter is the only writer to the remote store.
type RemoteWriter interface {
	// LatestTimestamp returns the newest timestamp the remote holds for stream.
	// The returned time is always usable: on failure it is the sentinel
	// watermark and err says why.
	LatestTimestamp(ctx context.Context, stream domain.Stream) (time.Time, error)
	// Upsert writes points as one atomic attempt. A non-nil error means the
	// attempt failed as a whole.
	Upsert(ctx context.Context, stream domain.Stream, points []domain.ResampledPoint) error
	Name() string
}

// Pinger is implemented by writers that can report remote health.
type Pinger interface {
	Ping(ctx context.Context) error
}
