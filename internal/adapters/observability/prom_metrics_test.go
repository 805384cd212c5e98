package observability

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Nathanael1721/Final-Project/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(reg, log.New(&bytes.Buffer{}, "", 0))

	obs.IncCounter(ports.MetricPointsDelivered, 5)
	if got := testutil.ToFloat64(obs.counters[ports.MetricPointsDelivered]); got != 5 {
		t.Fatalf("expected delivered counter 5, got %f", got)
	}

	obs.IncCounter(ports.MetricPointsBuffered, 2)
	if got := testutil.ToFloat64(obs.counters[ports.MetricPointsBuffered]); got != 2 {
		t.Fatalf("expected buffered counter 2, got %f", got)
	}

	obs.SetGauge(ports.MetricBufferPoints, 42)
	if got := testutil.ToFloat64(obs.gauges[ports.MetricBufferPoints]); got != 42 {
		t.Fatalf("expected buffer gauge 42, got %f", got)
	}

	obs.ObserveLatency(ports.MetricCycleDuration, 0.5)
	hCollector := obs.histos[ports.MetricCycleDuration].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected cycle histogram to record 1 sample, got %d", samples)
	}

	// Unknown names are ignored rather than panicking.
	obs.IncCounter("nope", 1)
	obs.SetGauge("nope", 1)
	obs.ObserveLatency("nope", 1)

	if n, err := testutil.GatherAndCount(reg); err != nil || n != 10 {
		t.Fatalf("expected 10 registered metrics, got %d (err=%v)", n, err)
	}
}

func TestPromObsLogLines(t *testing.T) {
	var buf bytes.Buffer
	obs := NewPromObs(prometheus.NewRegistry(), log.New(&buf, "", 0))

	obs.LogInfo("stream_delivered", ports.Field{Key: "stream", Value: "cluster1_suhu"}, ports.Field{Key: "points", Value: 3})
	obs.LogError("watermark_read_failed", errors.New("timeout"), ports.Field{Key: "stream", Value: "cluster1_tanah"})
	obs.LogCritical("buffer_append_failed", errors.New("disk full"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"INFO stream_delivered stream=cluster1_suhu points=3",
		"ERROR watermark_read_failed: timeout stream=cluster1_tanah",
		"CRITICAL buffer_append_failed: disk full",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}
