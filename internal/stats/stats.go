// Package stats holds the small set of descriptive statistics and binning
// helpers shared by the cleaner, the feature engineer and the analyzers.
//
// Binning follows the usual dataframe conventions: Cut uses right-closed
// intervals (a, b], QCut uses linearly interpolated quantile edges with the
// lowest edge included, and RankFirst breaks ties by order of appearance.
package stats

import (
	"errors"
	"math"
	"sort"
)

// ErrDuplicateEdges is returned by QCut when two quantile edges coincide
var ErrDuplicateEdges = errors.New("bin edges must be unique")

// SafeDiv returns a/b, or 0 when b is zero or the result is not finite
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Sum adds xs
func Sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return Sum(xs) / float64(len(xs))
}

// StdDev returns the sample standard deviation (n-1 denominator). Fewer
// than two values yield 0.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Min returns the smallest value, 0 for an empty slice
func Min(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// Max returns the largest value, 0 for an empty slice
func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// Median returns the median of xs. ok is false for an empty slice.
func Median(xs []float64) (median float64, ok bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return Quantile(sorted(xs), 0.5), true
}

// Quantile returns the q-quantile of an ascending slice using linear
// interpolation between the closest ranks
func Quantile(asc []float64, q float64) float64 {
	n := len(asc)
	if n == 0 {
		return 0
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return asc[lo]
	}
	frac := pos - float64(lo)
	return asc[lo] + (asc[hi]-asc[lo])*frac
}

// Mode returns the most frequent string. Ties go to the lexically
// smallest value so the result is stable.
func Mode(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

// RankFirst returns 1-based ranks of xs where equal values are ranked in
// the order they appear
func RankFirst(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, len(xs))
	for r, i := range idx {
		ranks[i] = float64(r + 1)
	}
	return ranks
}

// Cut assigns x to the right-closed interval (edges[i], edges[i+1]] and
// returns i. Values outside every interval return -1. Use math.Inf for
// open-ended outer bins.
func Cut(x float64, edges []float64) int {
	for i := 1; i < len(edges); i++ {
		if x > edges[i-1] && x <= edges[i] {
			return i - 1
		}
	}
	return -1
}

// QCut splits xs into k equal-frequency bins and returns the bin index
// (0..k-1) of each value
func QCut(xs []float64, k int) ([]int, error) {
	out := make([]int, len(xs))
	if len(xs) == 0 {
		return out, nil
	}

	asc := sorted(xs)
	edges := make([]float64, k+1)
	for i := 0; i <= k; i++ {
		edges[i] = Quantile(asc, float64(i)/float64(k))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			return nil, ErrDuplicateEdges
		}
	}

	for i, x := range xs {
		if x <= edges[0] {
			out[i] = 0
			continue
		}
		out[i] = Cut(x, edges)
		if out[i] < 0 {
			out[i] = k - 1
		}
	}
	return out, nil
}

// QCutRanked bins xs into k quantiles, falling back to their first-order
// ranks when the raw values produce duplicate edges. A slice too short to
// split at all lands entirely in bin 0.
func QCutRanked(xs []float64, k int) []int {
	if bins, err := QCut(xs, k); err == nil {
		return bins
	}
	if bins, err := QCut(RankFirst(xs), k); err == nil {
		return bins
	}
	return make([]int, len(xs))
}

// EqualWidthEdges returns k+1 edges splitting [min, max] into equal-width
// bins. The lowest edge is nudged down so the minimum falls in bin 0.
func EqualWidthEdges(xs []float64, k int) []float64 {
	lo, hi := Min(xs), Max(xs)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	span := hi - lo
	edges := make([]float64, k+1)
	for i := 0; i <= k; i++ {
		edges[i] = lo + span*float64(i)/float64(k)
	}
	edges[0] -= span * 0.001
	return edges
}

// Round rounds x to the given number of decimals
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

func sorted(xs []float64) []float64 {
	asc := append([]float64(nil), xs...)
	sort.Float64s(asc)
	return asc
}
