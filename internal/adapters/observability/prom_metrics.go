package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// PromObs writes operator log lines through the standard logger and keeps
// Prometheus metrics for the sync engine.
type PromObs struct {
	logger   *log.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the metrics with reg, or the default registerer when
// reg is nil.
func NewPromObs(reg prometheus.Registerer, logger *log.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = log.Default()
	}

	delivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricPointsDelivered,
		Help: "Resampled points upserted into the remote store during a sync cycle.",
	})
	buffered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricPointsBuffered,
		Help: "Resampled points written to the offline buffer.",
	})
	replayed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricPointsReplayed,
		Help: "Buffered points delivered by a successful drain.",
	})
	streamErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricStreamErrors,
		Help: "Stream sync attempts that ended in an error.",
	})
	corrupt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricBufferCorrupt,
		Help: "Corrupt buffer files discarded. Their points were lost.",
	})
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricCycles,
		Help: "Completed sync cycles.",
	})
	online := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricOnline,
		Help: "1 when the last connectivity probe succeeded.",
	})
	bufPoints := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricBufferPoints,
		Help: "Points currently held in the offline buffer.",
	})
	bufSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricBufferBytes,
		Help: "Size of the offline buffer file on disk.",
	})
	cycleDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricCycleDuration,
		Help:    "Wall time of one sync cycle across all streams.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	reg.MustRegister(delivered, buffered, replayed, streamErrs, corrupt, cycles, online, bufPoints, bufSize, cycleDur)

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			ports.MetricPointsDelivered: delivered,
			ports.MetricPointsBuffered:  buffered,
			ports.MetricPointsReplayed:  replayed,
			ports.MetricStreamErrors:    streamErrs,
			ports.MetricBufferCorrupt:   corrupt,
			ports.MetricCycles:          cycles,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricOnline:       online,
			ports.MetricBufferPoints: bufPoints,
			ports.MetricBufferBytes:  bufSize,
		},
		histos: map[string]prometheus.Observer{
			ports.MetricCycleDuration: cycleDur,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Printf("INFO %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Printf("ERROR %s: %v%s", msg, err, formatFields(fields))
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.logger.Printf("CRITICAL %s: %v%s", msg, err, formatFields(fields))
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
