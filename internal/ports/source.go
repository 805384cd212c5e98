package ports

import (
	"context"
	"time"

	"github.com/Nathanael1721/Final-Project/internal/domain"
)

// SourceReader pulls readings of one stream strictly newer than watermark.
type SourceReader interface {
	ReadSince(ctx context.Context, stream domain.Stream, watermark time.Time) ([]domain.Reading, error)
}
