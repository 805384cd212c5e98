package sensorsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Nathanael1721/Final-Project/internal/domain"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("sensorsync: publisher closed")

// ErrPublisherFull is returned when a stream already holds MaxPending readings.
var ErrPublisherFull = errors.New("sensorsync: publisher full")

// Sample is a single sensor value pushed by an in-process producer.
type Sample struct {
	Stream    string
	ID        int64
	Timestamp time.Time
	Value     *float64
}

// PublisherConfig bounds the readings held in memory per stream.
type PublisherConfig struct {
	MaxPending int
}

func (c *PublisherConfig) applyDefaults() {
	if c.MaxPending == 0 {
		c.MaxPending = 100_000
	}
}

// ReadingPublisher is a SourceReader fed by Publish instead of a local
// database, for embedding the sync engine next to the code that samples the
// sensors. Readings at or below the watermark of a later read are already on
// the remote and are released.
type ReadingPublisher struct {
	cfg     PublisherConfig
	catalog domain.Catalog

	mu       sync.Mutex
	readings map[string][]domain.Reading
	nextID   map[string]int64
	closed   bool
}

// NewReadingPublisher accepts samples for the given streams only.
func NewReadingPublisher(streams []Stream, cfg PublisherConfig) (*ReadingPublisher, error) {
	cfg.applyDefaults()
	if cfg.MaxPending < 0 {
		return nil, fmt.Errorf("max pending must not be negative")
	}
	catalog, err := domain.NewCatalog(streams)
	if err != nil {
		return nil, err
	}
	return &ReadingPublisher{
		cfg:      cfg,
		catalog:  catalog,
		readings: make(map[string][]domain.Reading),
		nextID:   make(map[string]int64),
	}, nil
}

// Publish queues samples. A zero ID is replaced by a per-stream sequence and a
// zero timestamp by the current UTC time.
func (p *ReadingPublisher) Publish(samples ...Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}
	for _, s := range samples {
		if _, ok := p.catalog.Lookup(s.Stream); !ok {
			return fmt.Errorf("publish: unknown stream %q", s.Stream)
		}
		if len(p.readings[s.Stream]) >= p.cfg.MaxPending {
			return fmt.Errorf("publish %s: %w", s.Stream, ErrPublisherFull)
		}

		id := s.ID
		if id == 0 {
			p.nextID[s.Stream]++
			id = p.nextID[s.Stream]
		} else if id > p.nextID[s.Stream] {
			p.nextID[s.Stream] = id
		}
		ts := s.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}

		var value *float64
		if s.Value != nil {
			v := *s.Value
			value = &v
		}
		p.readings[s.Stream] = append(p.readings[s.Stream], domain.Reading{
			Timestamp: ts.UTC(),
			ID:        id,
			Value:     value,
		})
	}
	return nil
}

// ReadSince returns the readings newer than watermark in timestamp order.
func (p *ReadingPublisher) ReadSince(ctx context.Context, stream Stream, watermark time.Time) ([]Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pending := p.readings[stream.Name]
	kept := pending[:0]
	out := make([]Reading, 0, len(pending))
	for _, r := range pending {
		if r.Timestamp.After(watermark) {
			kept = append(kept, r)
			out = append(out, r)
		}
	}
	p.readings[stream.Name] = kept

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Pending returns the number of readings held for stream.
func (p *ReadingPublisher) Pending(stream string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.readings[stream])
}

// Close rejects further samples. Held readings stay readable.
func (p *ReadingPublisher) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
