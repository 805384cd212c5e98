package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nathanael1721/Final-Project/pkg/sensorsync"
)

// Samples a fake temperature sensor in-process and prints every delivered
// minute average instead of writing to a remote database.
func main() {
	flow, err := sensorsync.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	streams := []sensorsync.Stream{{Name: "greenhouse_suhu", ValueColumn: "suhu"}}
	flow.Config().Streams = []sensorsync.StreamConfig{{Name: "greenhouse_suhu"}}

	pub, err := sensorsync.NewReadingPublisher(streams, sensorsync.PublisherConfig{})
	if err != nil {
		log.Fatalf("publisher: %v", err)
	}
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sample(ctx, pub, "greenhouse_suhu")

	callback := func(stream sensorsync.Stream, points []sensorsync.ResampledPoint) error {
		for _, p := range points {
			fmt.Printf("%s %s id=%d avg=%.2f\n", p.Timestamp.Format(time.RFC3339), stream.Name, p.ID, *p.Value)
		}
		return nil
	}

	err = flow.
		StreamIN(sensorsync.StreamInPublisher(pub)).
		Run(ctx, sensorsync.StreamOutCallback("stdout", callback))
	if err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

func sample(ctx context.Context, pub *sensorsync.ReadingPublisher, stream string) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v := 24 + rand.Float64()*4
			if err := pub.Publish(sensorsync.Sample{Stream: stream, Value: &v}); err != nil {
				log.Printf("publish: %v", err)
			}
		}
	}
}
