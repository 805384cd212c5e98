package sensorsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrChannelWriterClosed is returned when a channel writer is used after being closed.
var ErrChannelWriterClosed = errors.New("sensorsync: channel writer closed")

// PointBatchHandler receives the points of one successful sync or drain for a stream.
type PointBatchHandler func(stream Stream, points []ResampledPoint) error

// PointBatch is what a channel writer publishes.
type PointBatch struct {
	Stream Stream
	Points []ResampledPoint
}

// NewCallbackWriter adapts a PointBatchHandler into a RemoteWriter so callers can
// deliver points to any API without defining structs. The watermark of each
// stream is the newest timestamp the handler accepted, kept in memory only.
func NewCallbackWriter(name string, fn PointBatchHandler) RemoteWriter {
	if name == "" {
		name = "callback"
	}
	return &callbackWriter{name: name, fn: fn}
}

// NewChannelWriter exposes batches via a channel; it returns the writer, the
// read-only channel, and a close function that the caller should invoke during
// shutdown. A send blocks until the batch is received or ctx is done.
func NewChannelWriter(name string, buffer int) (RemoteWriter, <-chan PointBatch, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan PointBatch, buffer)
	w := &channelWriter{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return w, ch, func() { w.close() }
}

// watermarks tracks the newest accepted timestamp per stream.
type watermarks struct {
	mu     sync.Mutex
	latest map[string]time.Time
}

func (w *watermarks) get(stream string) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ts, ok := w.latest[stream]; ok {
		return ts
	}
	return SentinelWatermark
}

func (w *watermarks) advance(stream string, points []ResampledPoint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest == nil {
		w.latest = make(map[string]time.Time)
	}
	for _, p := range points {
		if p.Timestamp.After(w.latest[stream]) {
			w.latest[stream] = p.Timestamp
		}
	}
}

type callbackWriter struct {
	name string
	fn   PointBatchHandler
	wm   watermarks
}

func (w *callbackWriter) LatestTimestamp(_ context.Context, stream Stream) (time.Time, error) {
	return w.wm.get(stream.Name), nil
}

func (w *callbackWriter) Upsert(_ context.Context, stream Stream, points []ResampledPoint) error {
	if w.fn == nil {
		return fmt.Errorf("callback writer %q: nil handler", w.name)
	}
	if len(points) == 0 {
		return nil
	}
	if err := w.fn(stream, clonePoints(points)); err != nil {
		return err
	}
	w.wm.advance(stream.Name, points)
	return nil
}

func (w *callbackWriter) Name() string { return w.name }

type channelWriter struct {
	name   string
	ch     chan PointBatch
	closed chan struct{}
	once   sync.Once
	wm     watermarks
}

func (w *channelWriter) LatestTimestamp(_ context.Context, stream Stream) (time.Time, error) {
	return w.wm.get(stream.Name), nil
}

func (w *channelWriter) Upsert(ctx context.Context, stream Stream, points []ResampledPoint) error {
	select {
	case <-w.closed:
		return ErrChannelWriterClosed
	default:
	}

	if len(points) == 0 {
		return nil
	}

	batch := PointBatch{Stream: stream, Points: clonePoints(points)}

	select {
	case <-w.closed:
		return ErrChannelWriterClosed
	case <-ctx.Done():
		return ctx.Err()
	case w.ch <- batch:
		w.wm.advance(stream.Name, points)
		return nil
	}
}

func (w *channelWriter) Name() string { return w.name }

func (w *channelWriter) close() {
	w.once.Do(func() {
		close(w.closed)
		close(w.ch)
	})
}

func clonePoints(points []ResampledPoint) []ResampledPoint {
	out := make([]ResampledPoint, len(points))
	for i, p := range points {
		out[i] = p
		if p.Value != nil {
			v := *p.Value
			out[i].Value = &v
		}
	}
	return out
}
