// Package resample collapses raw readings into fixed-width bucket averages.
package resample

import (
	"math"
	"sort"
	"time"

	"github.com/Nathanael1721/Final-Project/internal/domain"
)

// DefaultBucketWidth is the one-minute granularity used for remote rows.
const DefaultBucketWidth = time.Minute

// Resample groups readings into buckets of width (UTC-aligned), averages the
// non-null values of each bucket and drops buckets without any. NaN and
// infinite values count as null. The result is sorted by bucket start.
//
// The output does not depend on input order: readings are sorted before the
// sums are taken, and each point carries the ID of the latest contributing
// reading in its bucket.
func Resample(readings []domain.Reading, width time.Duration) []domain.ResampledPoint {
	if width <= 0 {
		width = DefaultBucketWidth
	}
	if len(readings) == 0 {
		return nil
	}

	sorted := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		if usable(r.Value) {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return *a.Value < *b.Value
	})

	out := make([]domain.ResampledPoint, 0)
	var (
		bucket time.Time
		sum    float64
		count  int
		lastID int64
	)
	flush := func() {
		if count == 0 {
			return
		}
		out = append(out, domain.ResampledPoint{
			Timestamp: bucket,
			ID:        lastID,
			Value:     domain.Float(sum / float64(count)),
		})
	}

	for _, r := range sorted {
		b := r.Timestamp.UTC().Truncate(width)
		if count > 0 && !b.Equal(bucket) {
			flush()
			sum, count = 0, 0
		}
		bucket = b
		sum += *r.Value
		count++
		lastID = r.ID
	}
	flush()

	return out
}

func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
