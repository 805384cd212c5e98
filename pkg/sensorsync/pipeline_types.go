package sensorsync

import (
	"github.com/Nathanael1721/Final-Project/internal/app/pipeline"
	"github.com/Nathanael1721/Final-Project/internal/domain"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// Stream is one sensor table and the column holding its value.
type Stream = domain.Stream

// Reading is a raw row read from the local store.
type Reading = domain.Reading

// ResampledPoint is one bucket average, the unit written to the remote store.
type ResampledPoint = domain.ResampledPoint

// ConnectivityProbe decides whether the remote is worth trying.
type ConnectivityProbe = ports.ConnectivityProbe

// SourceReader reads readings newer than a watermark from the local store.
type SourceReader = ports.SourceReader

// RemoteWriter reports watermarks and upserts points into the remote store.
type RemoteWriter = ports.RemoteWriter

// OfflineBuffer durably keeps points that could not be delivered.
type OfflineBuffer = ports.OfflineBuffer

// Observability emits logs and metrics about cycles, streams and the buffer.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// DrainResult counts what a buffer drain delivered.
type DrainResult = ports.DrainResult

// BufferStats describes the buffer's current content.
type BufferStats = ports.BufferStats

// CycleReport summarizes one sync cycle.
type CycleReport = pipeline.CycleReport

// Outcome is the per-stream result of a cycle.
type Outcome = pipeline.Outcome

const (
	OutcomeSkipped   = pipeline.OutcomeSkipped
	OutcomeDelivered = pipeline.OutcomeDelivered
	OutcomeBuffered  = pipeline.OutcomeBuffered
	OutcomeFailed    = pipeline.OutcomeFailed
)

// SentinelWatermark is used when the remote holds nothing for a stream or
// cannot be asked.
var SentinelWatermark = domain.SentinelWatermark

// ErrOffline is returned by Drain when the remote is unreachable.
var ErrOffline = pipeline.ErrOffline
