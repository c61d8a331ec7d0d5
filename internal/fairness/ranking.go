// Package fairness computes blinding audit statistics: rankings, rank deltas,
// Spearman correlation, top-K overlap and the flags derived from them.
package fairness

import (
	"math"
	"sort"
)

// Rank assigns rank 1 to the highest total. Ties are broken by ascending id.
func Rank(totals map[string]float64) map[string]int {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := totals[ids[i]], totals[ids[j]]
		if a != b {
			return a > b
		}
		return ids[i] < ids[j]
	})
	out := make(map[string]int, len(ids))
	for i, id := range ids {
		out[id] = i + 1
	}
	return out
}

// DeltaPositions is rankBefore - rankAfter; positive means the candidate moved
// toward rank 1 after blinding.
func DeltaPositions(rankBefore, rankAfter int) int { return rankBefore - rankAfter }

// Spearman returns the tie-aware Spearman rank correlation of two aligned
// samples, or nil when fewer than two values are given or either side has no
// variance.
func Spearman(before, after []float64) *float64 {
	n := len(before)
	if n < 2 || len(after) != n {
		return nil
	}
	rb := averageRanks(before)
	ra := averageRanks(after)
	mb, ma := mean(rb), mean(ra)
	var cov, vb, va float64
	for i := 0; i < n; i++ {
		db, da := rb[i]-mb, ra[i]-ma
		cov += db * da
		vb += db * db
		va += da * da
	}
	if vb == 0 || va == 0 {
		return nil
	}
	rho := cov / math.Sqrt(vb*va)
	rho = math.Max(-1, math.Min(1, rho))
	return &rho
}

// averageRanks ranks values ascending, giving tied values the mean of their positions.
func averageRanks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return values[idx[i]] < values[idx[j]] })
	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// ClampK returns k defaulted to min(5, n) when k <= 0 and clamped to n.
func ClampK(k, n int) int {
	if k <= 0 {
		k = 5
	}
	if k > n {
		k = n
	}
	return k
}

// TopKOverlap counts candidates ranked within the top k both before and after.
// The ratio is count/k; it is 0 when k is 0.
func TopKOverlap(before, after map[string]int, k int) (int, float64) {
	if k <= 0 {
		return 0, 0
	}
	count := 0
	for id, rb := range before {
		if rb > k {
			continue
		}
		if ra, ok := after[id]; ok && ra <= k {
			count++
		}
	}
	return count, float64(count) / float64(k)
}
