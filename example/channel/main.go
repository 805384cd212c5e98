package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	sensorsync "github.com/Nathanael1721/Final-Project"
)

func main() {
	flow, err := sensorsync.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer, batches, closeBatches := sensorsync.NewChannelWriter("fanout", 32)
	defer closeBatches()

	go fanoutWorker("dashboard", batches)

	if err := flow.Run(ctx, sensorsync.StreamOutRemote(writer)); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, batches <-chan sensorsync.PointBatch) {
	for batch := range batches {
		fmt.Printf("[%s] %s: %d point(s) at %s\n", name, batch.Stream.Name, len(batch.Points), time.Now().Format(time.RFC3339))
	}
}
