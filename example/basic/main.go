package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	sensorsync "github.com/Nathanael1721/Final-Project"
)

func main() {
	flow, err := sensorsync.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := flow.Run(ctx); err != nil {
		log.Fatalf("sync runtime exited: %v", err)
	}
}
