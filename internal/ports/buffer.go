package ports

import (
	"context"

	"github.com/Nathanael1721/Final-Project/internal/domain"
)

// OfflineBuffer durably holds resampled points that could not be delivered.
type OfflineBuffer interface {
	Append(stream string, points []domain.ResampledPoint) error
	// DrainAll replays every buffered stream through w and deletes the buffer
	// only if all of them were delivered.
	DrainAll(ctx context.Context, w RemoteWriter) (DrainResult, error)
	Pending() bool
	Stats() BufferStats
}

type DrainResult struct {
	Streams int
	Points  int
}

type BufferStats struct {
	Streams   int
	Points    int
	SizeBytes int64
}
