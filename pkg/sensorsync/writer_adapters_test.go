package sensorsync

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	testStream = Stream{Name: "cluster2_suhu", ValueColumn: "suhu"}
	bucket0    = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

func testPoints(values ...float64) []ResampledPoint {
	out := make([]ResampledPoint, len(values))
	for i, v := range values {
		v := v
		out[i] = ResampledPoint{Timestamp: bucket0.Add(time.Duration(i) * time.Minute), ID: int64(i + 1), Value: &v}
	}
	return out
}

func TestNewCallbackWriter(t *testing.T) {
	var received []ResampledPoint
	w := NewCallbackWriter("cb", func(stream Stream, points []ResampledPoint) error {
		if stream.Name != testStream.Name {
			t.Errorf("unexpected stream %s", stream.Name)
		}
		received = append(received, points...)
		return nil
	})

	ts, err := w.LatestTimestamp(context.Background(), testStream)
	if err != nil || !ts.Equal(SentinelWatermark) {
		t.Fatalf("expected sentinel before any write, got %v %v", ts, err)
	}

	input := testPoints(20.5, 21)
	if err := w.Upsert(context.Background(), testStream, input); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if len(received) != 2 || *received[1].Value != 21 {
		t.Fatalf("unexpected delivered points %+v", received)
	}
	*input[0].Value = 99
	if *received[0].Value != 20.5 {
		t.Fatalf("expected handler to receive a copy")
	}

	ts, _ = w.LatestTimestamp(context.Background(), testStream)
	if !ts.Equal(bucket0.Add(time.Minute)) {
		t.Fatalf("expected watermark at newest point, got %v", ts)
	}
}

func TestNewCallbackWriterFailureKeepsWatermark(t *testing.T) {
	w := NewCallbackWriter("", func(Stream, []ResampledPoint) error { return errors.New("api down") })
	if w.Name() != "callback" {
		t.Fatalf("expected default name, got %s", w.Name())
	}
	if err := w.Upsert(context.Background(), testStream, testPoints(1)); err == nil {
		t.Fatalf("expected handler error")
	}
	if ts, _ := w.LatestTimestamp(context.Background(), testStream); !ts.Equal(SentinelWatermark) {
		t.Fatalf("failed write must not advance the watermark, got %v", ts)
	}
}

func TestNewCallbackWriterNilHandler(t *testing.T) {
	w := NewCallbackWriter("", nil)
	if err := w.Upsert(context.Background(), testStream, testPoints(1)); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelWriter(t *testing.T) {
	w, ch, closeFn := NewChannelWriter("chan", 1)
	defer closeFn()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Upsert(context.Background(), testStream, testPoints(3, 4, 5))
	}()

	var batch PointBatch
	select {
	case batch = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel batch")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if batch.Stream.Name != testStream.Name || len(batch.Points) != 3 {
		t.Fatalf("unexpected batch data: %+v", batch)
	}
	if ts, _ := w.LatestTimestamp(context.Background(), testStream); !ts.Equal(bucket0.Add(2 * time.Minute)) {
		t.Fatalf("unexpected watermark %v", ts)
	}

	closeFn()
	if err := w.Upsert(context.Background(), testStream, testPoints(1)); !errors.Is(err, ErrChannelWriterClosed) {
		t.Fatalf("expected ErrChannelWriterClosed, got %v", err)
	}
}

func TestNewChannelWriterHonoursContext(t *testing.T) {
	w, _, closeFn := NewChannelWriter("chan", 0)
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Upsert(ctx, testStream, testPoints(1)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error with no reader, got %v", err)
	}
}
