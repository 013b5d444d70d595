// aggregate.go implements the Aggregator stage: reduce the surviving edge
// magnitudes to a single sharpness score.
package sharpness

import "sort"

// TopFractionMean sorts samples in descending order, takes the strongest
// floor(n*fraction) values and returns the floor of their mean.
//
// The slice is not modified; a copy is sorted internally so a shared sample
// set can be aggregated concurrently.
//
// Returns 0 when no elements qualify (empty input or a fraction small
// enough that floor(n*fraction) is zero).
// This is a pure function with no side effects.
func TopFractionMean(samples []int, fraction float64) int {
	n := len(samples)
	if n == 0 {
		return 0
	}

	k := int(float64(n) * fraction)
	if k < 1 {
		return 0
	}

	sorted := make([]int, n)
	copy(sorted, samples)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	sum := 0
	for _, v := range sorted[:k] {
		sum += v
	}

	return sum / k
}

// Aggregate applies the sample-count policy and produces the sharpness
// score. Fewer than minSamples qualifying edges means the frame is blank,
// saturated or catastrophically out of focus; no statistic over so few
// edges is meaningful, so the image is declared immeasurable with score 0.
//
// The boolean result reports whether the image was measurable.
func Aggregate(samples []int, fraction float64, minSamples int) (score int, measurable bool) {
	if len(samples) < minSamples {
		return 0, false
	}
	return TopFractionMean(samples, fraction), true
}
