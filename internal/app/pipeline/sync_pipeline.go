package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Nathanael1721/Final-Project/internal/app/resample"
	"github.com/Nathanael1721/Final-Project/internal/domain"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// ErrOffline is returned by DrainBuffer when the probe reports the remote as
// unreachable. Nothing was attempted.
var ErrOffline = errors.New("remote offline")

type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeDelivered Outcome = "delivered"
	OutcomeBuffered  Outcome = "buffered"
	OutcomeFailed    Outcome = "failed"
)

// Stages holds the adapters a sync cycle drives.
type Stages struct {
	Probe  ports.ConnectivityProbe
	Source ports.SourceReader
	Remote ports.RemoteWriter
	Buffer ports.OfflineBuffer
	Obs    ports.Observability
}

// CycleReport summarizes one pass over every stream.
type CycleReport struct {
	ID       string
	Drained  ports.DrainResult
	Outcomes map[string]Outcome
	Duration time.Duration
}

// Count returns how many streams ended the cycle with o.
func (r CycleReport) Count(o Outcome) int {
	n := 0
	for _, got := range r.Outcomes {
		if got == o {
			n++
		}
	}
	return n
}

type cycleKey struct{}

func withCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

func streamFields(ctx context.Context, stream domain.Stream) []ports.Field {
	fields := []ports.Field{{Key: "stream", Value: stream.Name}}
	if id, ok := ctx.Value(cycleKey{}).(string); ok {
		fields = append(fields, ports.Field{Key: "cycle", Value: id})
	}
	return fields
}

// SyncStream moves the readings of one stream newer than the remote watermark
// to the remote, or into the buffer when the remote cannot take them. A panic
// raised by any stage is contained here and reported as OutcomeFailed.
func SyncStream(ctx context.Context, stream domain.Stream, st Stages, pol ports.Policy) (out Outcome) {
	fields := streamFields(ctx, stream)

	defer func() {
		if r := recover(); r != nil {
			st.Obs.LogCritical("stream_panic", fmt.Errorf("%v", r), fields...)
			st.Obs.IncCounter(ports.MetricStreamErrors, 1)
			out = OutcomeFailed
		}
	}()

	watermark, err := st.Remote.LatestTimestamp(ctx, stream)
	if err != nil {
		st.Obs.LogError("watermark_read_failed", err, fields...)
	}
	if watermark.IsZero() {
		watermark = domain.SentinelWatermark
	}

	readings, err := st.Source.ReadSince(ctx, stream, watermark)
	if err != nil {
		st.Obs.LogError("local_read_failed", err, fields...)
		st.Obs.IncCounter(ports.MetricStreamErrors, 1)
		return OutcomeFailed
	}
	if len(readings) == 0 {
		st.Obs.LogInfo("stream_skipped", append(fields, ports.Field{Key: "reason", Value: "no_new_readings"})...)
		return OutcomeSkipped
	}

	points := afterWatermark(resample.Resample(readings, pol.BucketWidth), watermark)
	if len(points) == 0 {
		st.Obs.LogInfo("stream_skipped", append(fields, ports.Field{Key: "reason", Value: "no_points"})...)
		return OutcomeSkipped
	}
	fields = append(fields, ports.Field{Key: "points", Value: len(points)})

	if isOnline(ctx, st) {
		err := st.Remote.Upsert(ctx, stream, points)
		if err == nil {
			st.Obs.IncCounter(ports.MetricPointsDelivered, float64(len(points)))
			st.Obs.LogInfo("stream_delivered", fields...)
			return OutcomeDelivered
		}
		// keep the original points; the drain retries them
		st.Obs.LogError("remote_write_failed", err, fields...)
	}

	if err := st.Buffer.Append(stream.Name, points); err != nil {
		st.Obs.LogCritical("buffer_append_failed", err, fields...)
		st.Obs.IncCounter(ports.MetricStreamErrors, 1)
		return OutcomeFailed
	}
	st.Obs.IncCounter(ports.MetricPointsBuffered, float64(len(points)))
	st.Obs.LogInfo("stream_buffered", fields...)
	recordBufferGauges(st)
	return OutcomeBuffered
}

// DrainBuffer replays the buffer through the remote when there is something
// buffered and the probe reports online.
func DrainBuffer(ctx context.Context, st Stages) (ports.DrainResult, error) {
	if !st.Buffer.Pending() {
		return ports.DrainResult{}, nil
	}
	if !isOnline(ctx, st) {
		return ports.DrainResult{}, ErrOffline
	}

	res, err := st.Buffer.DrainAll(ctx, st.Remote)
	recordBufferGauges(st)
	if err != nil {
		st.Obs.LogError("buffer_drain_failed", err, ports.Field{Key: "streams_sent", Value: res.Streams})
		return res, err
	}
	st.Obs.IncCounter(ports.MetricPointsReplayed, float64(res.Points))
	st.Obs.LogInfo("buffer_drained",
		ports.Field{Key: "streams", Value: res.Streams},
		ports.Field{Key: "points", Value: res.Points},
	)
	return res, nil
}

// RunCycle drains the buffer when possible and then syncs every stream once.
// With Concurrency above one, streams run in parallel up to that limit;
// otherwise they run in the given order.
func RunCycle(ctx context.Context, streams []domain.Stream, st Stages, pol ports.Policy) CycleReport {
	report := CycleReport{
		ID:       uuid.NewString(),
		Outcomes: make(map[string]Outcome, len(streams)),
	}
	ctx = withCycleID(ctx, report.ID)
	start := time.Now()

	if res, err := DrainBuffer(ctx, st); err == nil {
		report.Drained = res
	}

	outcomes := make([]Outcome, len(streams))
	if pol.Concurrency > 1 {
		var g errgroup.Group
		g.SetLimit(pol.Concurrency)
		for i, s := range streams {
			i, s := i, s
			g.Go(func() error {
				outcomes[i] = SyncStream(ctx, s, st, pol)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, s := range streams {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = SyncStream(ctx, s, st, pol)
		}
	}
	for i, s := range streams {
		if outcomes[i] != "" {
			report.Outcomes[s.Name] = outcomes[i]
		}
	}

	report.Duration = time.Since(start)
	st.Obs.IncCounter(ports.MetricCycles, 1)
	st.Obs.ObserveLatency(ports.MetricCycleDuration, report.Duration.Seconds())
	st.Obs.LogInfo("cycle_finished",
		ports.Field{Key: "cycle", Value: report.ID},
		ports.Field{Key: "delivered", Value: report.Count(OutcomeDelivered)},
		ports.Field{Key: "buffered", Value: report.Count(OutcomeBuffered)},
		ports.Field{Key: "skipped", Value: report.Count(OutcomeSkipped)},
		ports.Field{Key: "failed", Value: report.Count(OutcomeFailed)},
		ports.Field{Key: "replayed", Value: report.Drained.Points},
	)
	return report
}

func isOnline(ctx context.Context, st Stages) bool {
	online := st.Probe.IsOnline(ctx)
	if online {
		st.Obs.SetGauge(ports.MetricOnline, 1)
	} else {
		st.Obs.SetGauge(ports.MetricOnline, 0)
	}
	return online
}

func recordBufferGauges(st Stages) {
	stats := st.Buffer.Stats()
	st.Obs.SetGauge(ports.MetricBufferPoints, float64(stats.Points))
	st.Obs.SetGauge(ports.MetricBufferBytes, float64(stats.SizeBytes))
}

// afterWatermark keeps points strictly newer than watermark. The bucket that
// holds the watermark is already on the remote.
func afterWatermark(points []domain.ResampledPoint, watermark time.Time) []domain.ResampledPoint {
	out := points[:0]
	for _, p := range points {
		if p.Timestamp.After(watermark) {
			out = append(out, p)
		}
	}
	return out
}
