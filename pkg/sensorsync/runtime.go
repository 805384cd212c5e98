package sensorsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nathanael1721/Final-Project/internal/adapters/buffer"
	"github.com/Nathanael1721/Final-Project/internal/adapters/observability"
	"github.com/Nathanael1721/Final-Project/internal/adapters/probe"
	"github.com/Nathanael1721/Final-Project/internal/adapters/sink"
	"github.com/Nathanael1721/Final-Project/internal/adapters/source"
	"github.com/Nathanael1721/Final-Project/internal/adapters/sqlstore"
	"github.com/Nathanael1721/Final-Project/internal/app/pipeline"
	"github.com/Nathanael1721/Final-Project/internal/domain"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// MetricsDisabled as metrics.addr keeps the runtime from serving HTTP.
const MetricsDisabled = "off"

// SyncRuntimeOption customizes the dependencies used by SyncRuntime.
type SyncRuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	probe         ConnectivityProbe
	source        SourceReader
	remote        RemoteWriter
	buffer        OfflineBuffer
	observability Observability
}

// WithProbe replaces the TCP connectivity probe.
func WithProbe(p ConnectivityProbe) SyncRuntimeOption {
	return func(o *runtimeOverrides) {
		o.probe = p
	}
}

// WithSource reads readings from somewhere other than the local database.
func WithSource(s SourceReader) SyncRuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = s
	}
}

// WithRemote sends points to a custom destination instead of the remote database.
func WithRemote(w RemoteWriter) SyncRuntimeOption {
	return func(o *runtimeOverrides) {
		o.remote = w
	}
}

// WithBuffer lets callers bring their own offline buffer.
func WithBuffer(b OfflineBuffer) SyncRuntimeOption {
	return func(o *runtimeOverrides) {
		o.buffer = b
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) SyncRuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// Status is a point-in-time view used by operators.
type Status struct {
	Online    bool
	RemoteErr error
	Buffer    BufferStats
}

// SyncRuntime wires probe, local source, remote writer and offline buffer into
// the sync loop and owns the database handles it opened.
type SyncRuntime struct {
	cfg         *Config
	policy      ports.Policy
	streams     []domain.Stream
	stages      pipeline.Stages
	localDB     *sql.DB
	remoteDB    *sql.DB
	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
}

// NewSyncRuntime builds the default adapters (TCP probe, SQL source and
// remote, JSON file buffer, Prometheus observability) for whatever the options
// do not override. Database handles are opened lazily by database/sql, so an
// unreachable remote is not a startup error.
func NewSyncRuntime(cfg *Config, opts ...SyncRuntimeOption) (_ *SyncRuntime, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	rt := &SyncRuntime{
		cfg:     cfg,
		policy:  cfg.Policy,
		streams: catalog.Streams(),
	}
	defer func() {
		if err != nil {
			_ = rt.closeDBs()
		}
	}()

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(nil, nil)
	}

	prb := overrides.probe
	if prb == nil {
		prb = probe.NewTCPProbe(cfg.Probe.Target, cfg.Probe.Timeout)
	}

	src := overrides.source
	if src == nil {
		db, dialect, err := sqlstore.Open(cfg.Local.Driver, cfg.Local.DSN)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		rt.localDB = db
		src = source.NewSQLSource(db, dialect)
	}

	remote := overrides.remote
	if remote == nil {
		db, dialect, err := sqlstore.Open(cfg.Remote.Driver, cfg.Remote.DSN)
		if err != nil {
			return nil, fmt.Errorf("open remote store: %w", err)
		}
		rt.remoteDB = db
		remote = sink.NewSQLRemote(db, dialect)
	}

	buf := overrides.buffer
	if buf == nil {
		path := cfg.Buffer.Path
		buf, err = buffer.NewFileBuffer(path, catalog, buffer.WithCorruptionHook(func(cerr error) {
			obs.LogCritical("buffer_corrupt", cerr, ports.Field{Key: "path", Value: path})
			obs.IncCounter(ports.MetricBufferCorrupt, 1)
		}))
		if err != nil {
			return nil, fmt.Errorf("open buffer: %w", err)
		}
	}

	rt.stages = pipeline.Stages{
		Probe:  prb,
		Source: src,
		Remote: remote,
		Buffer: buf,
		Obs:    obs,
	}
	return rt, nil
}

// Streams returns the synced streams in configured order.
func (r *SyncRuntime) Streams() []Stream {
	out := make([]Stream, len(r.streams))
	copy(out, r.streams)
	return out
}

// Run serves metrics and runs the sync loop until ctx is cancelled, then shuts
// the runtime down.
func (r *SyncRuntime) Run(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("sync runtime is nil")
	}
	r.startMetrics()

	loopErr := pipeline.RunSyncLoop(ctx, r.streams, r.stages, r.policy)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(loopErr, r.Shutdown(shutdownCtx))
}

// RunOnce runs a single cycle: drain if possible, then every stream.
func (r *SyncRuntime) RunOnce(ctx context.Context) CycleReport {
	return pipeline.RunCycle(ctx, r.streams, r.stages, r.policy)
}

// Drain replays the buffer now. It fails with ErrOffline when the probe
// reports the remote unreachable.
func (r *SyncRuntime) Drain(ctx context.Context) (DrainResult, error) {
	return pipeline.DrainBuffer(ctx, r.stages)
}

// BufferStats reports what is waiting in the offline buffer.
func (r *SyncRuntime) BufferStats() BufferStats {
	return r.stages.Buffer.Stats()
}

// Status probes connectivity and, when the remote supports it, pings it.
func (r *SyncRuntime) Status(ctx context.Context) Status {
	st := Status{
		Online: r.stages.Probe.IsOnline(ctx),
		Buffer: r.stages.Buffer.Stats(),
	}
	if p, ok := r.stages.Remote.(ports.Pinger); ok {
		st.RemoteErr = p.Ping(ctx)
	}
	return st
}

// Shutdown stops the metrics server and closes the database handles.
func (r *SyncRuntime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		r.gaugeStopCh = nil
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		r.metricsSrv = nil
	}

	errs = append(errs, r.closeDBs())
	return errors.Join(errs...)
}

func (r *SyncRuntime) closeDBs() error {
	var errs []error
	if r.localDB != nil {
		if err := r.localDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close local store: %w", err))
		}
		r.localDB = nil
	}
	if r.remoteDB != nil {
		if err := r.remoteDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close remote store: %w", err))
		}
		r.remoteDB = nil
	}
	return errors.Join(errs...)
}

func (r *SyncRuntime) startMetrics() {
	if r.cfg.Metrics.Addr == "" || r.cfg.Metrics.Addr == MetricsDisabled {
		return
	}

	r.metricsSrv = &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           r.metricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}(r.metricsSrv)

	r.gaugeStopCh = make(chan struct{})
	go r.recordBufferGauges(r.gaugeStopCh, 15*time.Second)
}

func (r *SyncRuntime) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if p, ok := r.stages.Remote.(ports.Pinger); ok {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				http.Error(w, "remote unreachable: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	return mux
}

func (r *SyncRuntime) recordBufferGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := r.stages.Buffer.Stats()
		r.stages.Obs.SetGauge(ports.MetricBufferPoints, float64(stats.Points))
		r.stages.Obs.SetGauge(ports.MetricBufferBytes, float64(stats.SizeBytes))

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
