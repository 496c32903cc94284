package analysis

import (
	"math"
	"sort"
)

// signedRankExactCutoff is the largest sample for which the signed-rank null
// distribution is enumerated exactly.
const signedRankExactCutoff = 25

// WilcoxonSignedRank computes the two-sided Wilcoxon signed-rank test for
// paired samples. Zero differences are discarded before ranking and the
// statistic is min(W+, W-). The p-value is exact when at most 25 pairs remain
// and no zeros were dropped and no ties exist; otherwise it uses the
// tie-corrected normal approximation. Any NaN difference yields (NaN, NaN);
// no nonzero pairs yield (0, 1).
func WilcoxonSignedRank(first, last []float64) (float64, float64) {
	diffs := make([]float64, 0, len(first))
	zerosDropped := false
	for i := range first {
		d := first[i] - last[i]
		if math.IsNaN(d) {
			return math.NaN(), math.NaN()
		}
		if d == 0 {
			zerosDropped = true
			continue
		}
		diffs = append(diffs, d)
	}

	n := len(diffs)
	if n == 0 {
		return 0, 1
	}

	ranks, hasTies := midranks(diffs)

	var wPlus, wMinus float64
	for i, d := range diffs {
		if d > 0 {
			wPlus += ranks[i]
		} else {
			wMinus += ranks[i]
		}
	}
	statistic := math.Min(wPlus, wMinus)

	if n <= signedRankExactCutoff && !hasTies && !zerosDropped {
		return statistic, dist.SignedRankExactTwoSidedPValue(statistic, n)
	}

	// Normal approximation with tie correction.
	nf := float64(n)
	mn := nf * (nf + 1) / 4
	variance := nf*(nf+1)*(2*nf+1)/24 - tieCorrection(ranks)/48
	se := math.Sqrt(variance)
	if se == 0 {
		return statistic, 1
	}
	z := (statistic - mn) / se
	return statistic, 2 * (1 - dist.NormalCDF(math.Abs(z)))
}

// midranks assigns 1-based average ranks to the absolute differences and
// reports whether any ties were present.
func midranks(diffs []float64) ([]float64, bool) {
	n := len(diffs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return math.Abs(diffs[idx[a]]) < math.Abs(diffs[idx[b]])
	})

	ranks := make([]float64, n)
	hasTies := false
	for i := 0; i < n; {
		j := i
		for j+1 < n && math.Abs(diffs[idx[j+1]]) == math.Abs(diffs[idx[i]]) {
			j++
		}
		if j > i {
			hasTies = true
		}
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks, hasTies
}

// tieCorrection returns sum(t^3 - t) over groups of tied ranks.
func tieCorrection(ranks []float64) float64 {
	counts := make(map[float64]int)
	for _, r := range ranks {
		counts[r]++
	}
	var sum float64
	for _, t := range counts {
		if t > 1 {
			tf := float64(t)
			sum += tf*tf*tf - tf
		}
	}
	return sum
}
