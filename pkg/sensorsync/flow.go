package sensorsync

import (
	"context"
	"fmt"
)

// Flow builds a SyncRuntime in reading order: Conf picks the configuration,
// StreamIN describes where readings come from and where they wait while
// offline, StreamOUT describes where resampled points go.
type Flow struct {
	cfg  *Config
	opts []SyncRuntimeOption
	only []string
}

// FlowOption applies to the whole flow, whichever side it concerns.
type FlowOption func(*Flow)

// StreamInOption configures the local side: probe, readings, offline buffer,
// and which streams take part.
type StreamInOption func(*Flow)

// StreamOutOption configures the remote side.
type StreamOutOption func(*Flow)

// Conf loads the YAML configuration at path (plus .env and environment
// overrides) and starts a Flow.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig starts a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the configuration the runtime will be built from.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// StreamIN records local-side choices.
func (f *Flow) StreamIN(opts ...StreamInOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// StreamOUT records remote-side choices and builds the runtime. Streams named
// by StreamInOnly must exist in the configuration.
func (f *Flow) StreamOUT(opts ...StreamOutOption) (*SyncRuntime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	cfg, err := f.selectStreams()
	if err != nil {
		return nil, err
	}
	return NewSyncRuntime(cfg, f.opts...)
}

// Run builds the runtime and syncs until ctx is cancelled.
func (f *Flow) Run(ctx context.Context, opts ...StreamOutOption) error {
	rt, err := f.StreamOUT(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// selectStreams narrows a copy of the configuration to the streams chosen by
// StreamInOnly, keeping configured order. The caller's Config is untouched.
func (f *Flow) selectStreams() (*Config, error) {
	if len(f.only) == 0 {
		return f.cfg, nil
	}
	catalog, err := f.cfg.Catalog()
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(f.only))
	for _, name := range f.only {
		if _, ok := catalog.Lookup(name); !ok {
			return nil, fmt.Errorf("stream %q is not configured", name)
		}
		wanted[name] = true
	}

	cfg := *f.cfg
	cfg.Streams = make([]StreamConfig, 0, len(wanted))
	for _, s := range catalog.Streams() {
		if wanted[s.Name] {
			cfg.Streams = append(cfg.Streams, StreamConfig{Name: s.Name, ValueColumn: s.ValueColumn})
		}
	}
	return &cfg, nil
}

// WithFlowOptions passes raw SyncRuntimeOption values through Conf.
func WithFlowOptions(opts ...SyncRuntimeOption) FlowOption {
	return func(f *Flow) {
		f.use(opts...)
	}
}

// FlowObservability replaces the Prometheus-backed logging and metrics.
func FlowObservability(obs Observability) FlowOption {
	return func(f *Flow) {
		if obs != nil {
			f.use(WithObservability(obs))
		}
	}
}

// StreamInProbe replaces the TCP connectivity probe.
func StreamInProbe(p ConnectivityProbe) StreamInOption {
	return func(f *Flow) {
		if p != nil {
			f.use(WithProbe(p))
		}
	}
}

// StreamInSource reads readings from somewhere other than the local store.
func StreamInSource(s SourceReader) StreamInOption {
	return func(f *Flow) {
		if s != nil {
			f.use(WithSource(s))
		}
	}
}

// StreamInPublisher feeds the runtime from an in-process ReadingPublisher.
func StreamInPublisher(p *ReadingPublisher) StreamInOption {
	return func(f *Flow) {
		if p != nil {
			f.use(WithSource(p))
		}
	}
}

// StreamInBuffer holds undelivered points somewhere other than the JSON file.
func StreamInBuffer(b OfflineBuffer) StreamInOption {
	return func(f *Flow) {
		if b != nil {
			f.use(WithBuffer(b))
		}
	}
}

// StreamInOnly syncs only the named streams out of the configured ones.
// Repeated calls add to the selection.
func StreamInOnly(names ...string) StreamInOption {
	return func(f *Flow) {
		f.only = append(f.only, names...)
	}
}

// StreamOutRemote sends points to w instead of the configured remote store.
func StreamOutRemote(w RemoteWriter) StreamOutOption {
	return func(f *Flow) {
		if w != nil {
			f.use(WithRemote(w))
		}
	}
}

// StreamOutCallback sends points to fn through NewCallbackWriter.
func StreamOutCallback(name string, fn PointBatchHandler) StreamOutOption {
	return func(f *Flow) {
		f.use(WithRemote(NewCallbackWriter(name, fn)))
	}
}

func (f *Flow) use(opts ...SyncRuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
