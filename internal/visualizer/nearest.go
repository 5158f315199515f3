package visualizer

import "sort"

// NearestIndex returns the k in [0, n) minimizing |at(k) - target| on a
// non-decreasing axis. Ties go to the lowest index and targets outside the
// axis clamp to its ends. An empty axis yields 0.
func NearestIndex(n int, at func(int) float64, target float64) int {
	if n <= 0 {
		return 0
	}
	i := sort.Search(n, func(k int) bool { return at(k) >= target })
	switch {
	case i == 0:
		return 0
	case i == n:
		i = n - 1
	case target-at(i-1) <= at(i)-target:
		i--
	default:
		return i
	}
	for i > 0 && at(i-1) == at(i) {
		i--
	}
	return i
}

// NearestIndexOf is NearestIndex over a slice.
func NearestIndexOf(axis []float64, target float64) int {
	return NearestIndex(len(axis), func(k int) float64 { return axis[k] }, target)
}
