package domain

import "time"

// SentinelWatermark stands in for the remote watermark when the remote holds
// nothing for a stream or cannot be asked.
var SentinelWatermark = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Reading is a single raw observation pulled from the local store. ID is the
// source row identity and is only unique within one stream.
type Reading struct {
	Timestamp time.Time
	ID        int64
	Value     *float64
}

// ResampledPoint is the averaged value of one bucket. Value is never nil for
// points produced by the resampler; buffered points are re-checked on replay.
type ResampledPoint struct {
	Timestamp time.Time `json:"timestamp"`
	ID        int64     `json:"id"`
	Value     *float64  `json:"value"`
}

// BufferedBatch maps a stream name to the points still waiting for delivery.
type BufferedBatch map[string][]ResampledPoint

// Len returns the number of buffered points across all streams.
func (b BufferedBatch) Len() int {
	n := 0
	for _, pts := range b {
		n += len(pts)
	}
	return n
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
