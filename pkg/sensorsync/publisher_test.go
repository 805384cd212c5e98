package sensorsync

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReadingPublisherReadSince(t *testing.T) {
	pub, err := NewReadingPublisher([]Stream{testStream}, PublisherConfig{})
	if err != nil {
		t.Fatalf("NewReadingPublisher: %v", err)
	}

	v1, v2 := 10.0, 12.0
	if err := pub.Publish(
		Sample{Stream: testStream.Name, Timestamp: bucket0.Add(70 * time.Second), Value: &v2},
		Sample{Stream: testStream.Name, Timestamp: bucket0.Add(10 * time.Second), Value: &v1},
		Sample{Stream: testStream.Name, Timestamp: bucket0.Add(20 * time.Second)},
	); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got, err := pub.ReadSince(context.Background(), testStream, SentinelWatermark)
	if err != nil {
		t.Fatalf("ReadSince: %v", err)
	}
	if len(got) != 3 || !got[0].Timestamp.Equal(bucket0.Add(10*time.Second)) {
		t.Fatalf("expected readings in timestamp order, got %+v", got)
	}
	if got[1].Value != nil {
		t.Fatalf("expected null value to be preserved")
	}
	if got[0].ID != 2 || got[2].ID != 1 {
		t.Fatalf("expected sequence ids in publish order, got %d and %d", got[0].ID, got[2].ID)
	}

	got, _ = pub.ReadSince(context.Background(), testStream, bucket0.Add(time.Minute))
	if len(got) != 1 {
		t.Fatalf("expected one reading after 10:01, got %d", len(got))
	}
	if pub.Pending(testStream.Name) != 1 {
		t.Fatalf("readings at or below the watermark should be released, pending=%d", pub.Pending(testStream.Name))
	}
}

func TestReadingPublisherRejects(t *testing.T) {
	pub, err := NewReadingPublisher([]Stream{testStream}, PublisherConfig{MaxPending: 1})
	if err != nil {
		t.Fatalf("NewReadingPublisher: %v", err)
	}

	if err := pub.Publish(Sample{Stream: "cluster9_unknown"}); err == nil {
		t.Fatalf("expected unknown stream to be rejected")
	}
	if err := pub.Publish(Sample{Stream: testStream.Name}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := pub.Publish(Sample{Stream: testStream.Name}); !errors.Is(err, ErrPublisherFull) {
		t.Fatalf("expected ErrPublisherFull, got %v", err)
	}

	pub.Close()
	if err := pub.Publish(Sample{Stream: testStream.Name}); !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("expected ErrPublisherClosed, got %v", err)
	}
}

func TestReadingPublisherCancelledContext(t *testing.T) {
	pub, _ := NewReadingPublisher([]Stream{testStream}, PublisherConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pub.ReadSince(ctx, testStream, SentinelWatermark); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
