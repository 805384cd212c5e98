package ports

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)
}

type Field struct {
	Key   string
	Value any
}

// Metric names emitted by the sync engine.
const (
	MetricPointsDelivered = "sensorsync_points_delivered_total"
	MetricPointsBuffered  = "sensorsync_points_buffered_total"
	MetricPointsReplayed  = "sensorsync_points_replayed_total"
	MetricStreamErrors    = "sensorsync_stream_errors_total"
	MetricBufferCorrupt   = "sensorsync_buffer_corrupt_total"
	MetricCycles          = "sensorsync_cycles_total"
	MetricOnline          = "sensorsync_online"
	MetricBufferPoints    = "sensorsync_buffer_points"
	MetricBufferBytes     = "sensorsync_buffer_size_bytes"
	MetricCycleDuration   = "sensorsync_cycle_duration_seconds"
)
