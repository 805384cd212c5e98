package buffer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Nathanael1721/Final-Project/internal/domain"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// ErrBufferCorrupt tags the report made when an unparsable buffer file is
// discarded. Its points are lost.
var ErrBufferCorrupt = errors.New("buffer: corrupt buffer file discarded")

// FileBuffer keeps undelivered points in a single JSON document mapping stream
// name to points. Every mutation rewrites the whole document to a temp file and
// renames it over the old one, so the file on disk is always complete.
type FileBuffer struct {
	mu        sync.Mutex
	path      string
	catalog   domain.Catalog
	onCorrupt func(error)
}

type Option func(*FileBuffer)

// WithCorruptionHook is called each time a corrupt file is discarded.
func WithCorruptionHook(fn func(error)) Option {
	return func(b *FileBuffer) {
		b.onCorrupt = fn
	}
}

// NewFileBuffer creates the parent directory of path if needed. catalog maps
// buffered stream names back to their value columns on replay.
func NewFileBuffer(path string, catalog domain.Catalog, opts ...Option) (*FileBuffer, error) {
	if path == "" {
		return nil, fmt.Errorf("buffer path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	b := &FileBuffer{path: path, catalog: catalog}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

func (b *FileBuffer) Path() string { return b.path }

// Append merges points into stream's entry. A point whose bucket is already
// buffered replaces the older copy in place; new buckets go to the end.
func (b *FileBuffer) Append(stream string, points []domain.ResampledPoint) error {
	if len(points) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	batch, err := b.loadLocked()
	if err != nil {
		return err
	}
	batch[stream] = mergePoints(batch[stream], points)
	return b.persistLocked(batch)
}

// DrainAll replays streams in name order. The first failed stream aborts the
// drain and the file is left untouched; it is deleted only after every stream
// was delivered.
func (b *FileBuffer) DrainAll(ctx context.Context, w ports.RemoteWriter) (ports.DrainResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res ports.DrainResult

	batch, err := b.loadLocked()
	if err != nil {
		return res, err
	}
	if _, err := os.Stat(b.path); errors.Is(err, os.ErrNotExist) {
		return res, nil
	}

	names := make([]string, 0, len(batch))
	for name := range batch {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		points := dropNulls(batch[name])
		if len(points) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := w.Upsert(ctx, b.catalog.Resolve(name), points); err != nil {
			return res, fmt.Errorf("drain %s: %w", name, err)
		}
		res.Streams++
		res.Points += len(points)
	}

	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return res, err
	}
	return res, nil
}

// Pending reports whether a buffer file exists.
func (b *FileBuffer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := os.Stat(b.path)
	return err == nil
}

func (b *FileBuffer) Stats() ports.BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	var stats ports.BufferStats
	batch, err := b.loadLocked()
	if err != nil {
		return stats
	}
	for _, pts := range batch {
		if len(pts) > 0 {
			stats.Streams++
		}
	}
	stats.Points = batch.Len()
	if fi, err := os.Stat(b.path); err == nil {
		stats.SizeBytes = fi.Size()
	}
	return stats
}

// Snapshot returns a copy of the buffered content.
func (b *FileBuffer) Snapshot() (domain.BufferedBatch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadLocked()
}

func (b *FileBuffer) loadLocked() (domain.BufferedBatch, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.BufferedBatch{}, nil
		}
		return nil, err
	}

	var batch domain.BufferedBatch
	if err := json.Unmarshal(raw, &batch); err != nil || batch == nil {
		if err == nil {
			err = errors.New("top-level value is not an object")
		}
		if rmErr := os.Remove(b.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, rmErr
		}
		if b.onCorrupt != nil {
			b.onCorrupt(fmt.Errorf("%w: %s: %v", ErrBufferCorrupt, b.path, err))
		}
		return domain.BufferedBatch{}, nil
	}
	return batch, nil
}

func (b *FileBuffer) persistLocked(batch domain.BufferedBatch) error {
	data, err := json.MarshalIndent(batch, "", "    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func mergePoints(existing, incoming []domain.ResampledPoint) []domain.ResampledPoint {
	index := make(map[int64]int, len(existing))
	for i, p := range existing {
		index[p.Timestamp.UnixNano()] = i
	}
	for _, p := range incoming {
		key := p.Timestamp.UnixNano()
		if i, ok := index[key]; ok {
			existing[i] = p
			continue
		}
		index[key] = len(existing)
		existing = append(existing, p)
	}
	return existing
}

func dropNulls(points []domain.ResampledPoint) []domain.ResampledPoint {
	out := make([]domain.ResampledPoint, 0, len(points))
	for _, p := range points {
		if p.Value != nil {
			out = append(out, p)
		}
	}
	return out
}

var _ ports.OfflineBuffer = (*FileBuffer)(nil)
