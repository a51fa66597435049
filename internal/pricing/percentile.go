package pricing

import (
	"math"
	"slices"
)

// Percentile returns the p-th percentile of values, interpolating linearly
// between the closest ranks. values must be non-empty and p in [0, 100].
func Percentile(values []float64, p float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// Round6 rounds a price to six decimals.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
