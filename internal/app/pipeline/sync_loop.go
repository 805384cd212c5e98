package pipeline

import (
	"context"
	"time"

	"github.com/Nathanael1721/Final-Project/internal/domain"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

const (
	defaultPollInterval  = 60 * time.Second
	defaultProbeInterval = time.Second
)

// RunSyncLoop runs cycles until ctx is cancelled, then returns nil. Between
// cycles it keeps probing so a non-empty buffer is drained as soon as the
// remote comes back, without waiting for the next cycle.
func RunSyncLoop(ctx context.Context, streams []domain.Stream, st Stages, pol ports.Policy) error {
	pol = normalizePolicy(pol)
	st.Obs.LogInfo("sync_loop_started",
		ports.Field{Key: "streams", Value: len(streams)},
		ports.Field{Key: "poll_interval", Value: pol.PollInterval},
		ports.Field{Key: "probe_interval", Value: pol.ProbeInterval},
	)

	for {
		if ctx.Err() != nil {
			break
		}
		RunCycle(ctx, streams, st, pol)
		if !waitForNextCycle(ctx, st, pol) {
			break
		}
	}

	st.Obs.LogInfo("sync_loop_stopped")
	return nil
}

// waitForNextCycle blocks for one poll interval, draining on every probe tick
// that finds the buffer non-empty and the remote reachable. It returns false
// when ctx is done.
func waitForNextCycle(ctx context.Context, st Stages, pol ports.Policy) bool {
	deadline := time.NewTimer(pol.PollInterval)
	defer deadline.Stop()
	tick := time.NewTicker(pol.ProbeInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return true
		case <-tick.C:
			_, _ = DrainBuffer(ctx, st)
		}
	}
}

func normalizePolicy(pol ports.Policy) ports.Policy {
	if pol.PollInterval <= 0 {
		pol.PollInterval = defaultPollInterval
	}
	if pol.ProbeInterval <= 0 {
		pol.ProbeInterval = defaultProbeInterval
	}
	if pol.ProbeInterval > pol.PollInterval {
		pol.ProbeInterval = pol.PollInterval
	}
	if pol.Concurrency < 1 {
		pol.Concurrency = 1
	}
	return pol
}
