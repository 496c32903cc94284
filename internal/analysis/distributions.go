package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StatisticalDistributions provides unified access to the distributions used
// by the comparison engine
type StatisticalDistributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *StatisticalDistributions {
	return &StatisticalDistributions{}
}

// Shared instance for the package-level test functions.
var dist = NewDistributions()

// TTestPValue computes the exact two-tailed p-value for a t statistic using
// Student's t-distribution
func (sd *StatisticalDistributions) TTestPValue(tStatistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	df := float64(degreesOfFreedom)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	// Two-tailed test
	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// NormalCDF computes the cumulative distribution function for the standard
// normal
func (sd *StatisticalDistributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes the quantile function for the standard normal
// (inverse CDF)
func (sd *StatisticalDistributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// SignedRankExactTwoSidedPValue computes the exact two-sided p-value for a
// Wilcoxon signed-rank statistic over n untied pairs. The statistic is assumed
// to already be min(W+, W-).
func (sd *StatisticalDistributions) SignedRankExactTwoSidedPValue(tStatistic float64, n int) float64 {
	// W is integer-valued when there are no ties; round to be robust to float
	// representation.
	wObs := int(math.Round(tStatistic))
	if wObs < 0 {
		wObs = 0
	}

	totalRankSum := n * (n + 1) / 2
	if wObs > totalRankSum {
		wObs = totalRankSum
	}

	// Dynamic programming for subset sums of ranks 1..n.
	// dp[s] = number of sign assignments producing W+ = s.
	dp := make([]uint64, totalRankSum+1)
	dp[0] = 1
	for r := 1; r <= n; r++ {
		for s := totalRankSum; s >= r; s-- {
			dp[s] += dp[s-r]
		}
	}

	totalOutcomes := uint64(1) << uint(n) // 2^n
	var cum uint64
	for s := 0; s <= wObs; s++ {
		cum += dp[s]
	}

	pTwoSide := 2 * float64(cum) / float64(totalOutcomes)
	if pTwoSide > 1.0 {
		pTwoSide = 1.0
	}
	return pTwoSide
}
