package sensorsync

import (
	base "github.com/Nathanael1721/Final-Project/pkg/sensorsync"
)

// Re-exported errors for convenience.
var (
	ErrOffline             = base.ErrOffline
	ErrChannelWriterClosed = base.ErrChannelWriterClosed
	ErrPublisherClosed     = base.ErrPublisherClosed
	ErrPublisherFull       = base.ErrPublisherFull
)

// Type aliases so consumers can import the module root directly.
type (
	Config            = base.Config
	Policy            = base.Policy
	ProbeConfig       = base.ProbeConfig
	StoreConfig       = base.StoreConfig
	StreamConfig      = base.StreamConfig
	BufferConfig      = base.BufferConfig
	MetricsConfig     = base.MetricsConfig
	Flow              = base.Flow
	FlowOption        = base.FlowOption
	StreamInOption    = base.StreamInOption
	StreamOutOption   = base.StreamOutOption
	SyncRuntime       = base.SyncRuntime
	SyncRuntimeOption = base.SyncRuntimeOption
	Status            = base.Status
	Stream            = base.Stream
	Reading           = base.Reading
	ResampledPoint    = base.ResampledPoint
	ConnectivityProbe = base.ConnectivityProbe
	SourceReader      = base.SourceReader
	RemoteWriter      = base.RemoteWriter
	OfflineBuffer     = base.OfflineBuffer
	Observability     = base.Observability
	Field             = base.Field
	DrainResult       = base.DrainResult
	BufferStats       = base.BufferStats
	CycleReport       = base.CycleReport
	Outcome           = base.Outcome
	PointBatch        = base.PointBatch
	PointBatchHandler = base.PointBatchHandler
	Sample            = base.Sample
	ReadingPublisher  = base.ReadingPublisher
	PublisherConfig   = base.PublisherConfig
)

const (
	OutcomeSkipped   = base.OutcomeSkipped
	OutcomeDelivered = base.OutcomeDelivered
	OutcomeBuffered  = base.OutcomeBuffered
	OutcomeFailed    = base.OutcomeFailed
	MetricsDisabled  = base.MetricsDisabled
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...SyncRuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func FlowObservability(obs Observability) FlowOption {
	return base.FlowObservability(obs)
}

func StreamInProbe(p ConnectivityProbe) StreamInOption {
	return base.StreamInProbe(p)
}

func StreamInSource(s SourceReader) StreamInOption {
	return base.StreamInSource(s)
}

func StreamInPublisher(p *ReadingPublisher) StreamInOption {
	return base.StreamInPublisher(p)
}

func StreamInBuffer(b OfflineBuffer) StreamInOption {
	return base.StreamInBuffer(b)
}

func StreamInOnly(names ...string) StreamInOption {
	return base.StreamInOnly(names...)
}

func StreamOutRemote(w RemoteWriter) StreamOutOption {
	return base.StreamOutRemote(w)
}

func StreamOutCallback(name string, fn PointBatchHandler) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Sync runtime and options.
func NewSyncRuntime(cfg *Config, opts ...SyncRuntimeOption) (*SyncRuntime, error) {
	return base.NewSyncRuntime(cfg, opts...)
}

func WithProbe(p ConnectivityProbe) SyncRuntimeOption {
	return base.WithProbe(p)
}

func WithSource(s SourceReader) SyncRuntimeOption {
	return base.WithSource(s)
}

func WithRemote(w RemoteWriter) SyncRuntimeOption {
	return base.WithRemote(w)
}

func WithBuffer(b OfflineBuffer) SyncRuntimeOption {
	return base.WithBuffer(b)
}

func WithObservability(obs Observability) SyncRuntimeOption {
	return base.WithObservability(obs)
}

// Writer adapters.
func NewCallbackWriter(name string, fn PointBatchHandler) RemoteWriter {
	return base.NewCallbackWriter(name, fn)
}

func NewChannelWriter(name string, buffer int) (RemoteWriter, <-chan PointBatch, func()) {
	return base.NewChannelWriter(name, buffer)
}

// In-process source.
func NewReadingPublisher(streams []Stream, cfg PublisherConfig) (*ReadingPublisher, error) {
	return base.NewReadingPublisher(streams, cfg)
}
