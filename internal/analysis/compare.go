package analysis

import (
	"ttlearn/domain/result"
)

// normalityAlpha gates test selection: differences whose Shapiro-Wilk p-value
// exceeds it are treated as normal.
const normalityAlpha = 0.05

// CompareSeries runs the paired comparison for one variable's per-participant
// first/last means and assembles its result row. Normal-looking differences
// take the paired t-test; everything else takes the Wilcoxon signed-rank
// test, except that uniformly zero differences short-circuit to statistic 0
// and p-value 1.
func CompareSeries(condition, variable string, first, last []float64) result.Row {
	diffs := make([]float64, len(first))
	for i := range first {
		diffs[i] = first[i] - last[i]
	}

	_, shapiroP := ShapiroWilk(diffs)

	var (
		testName  string
		statistic float64
		pvalue    float64
	)
	if shapiroP > normalityAlpha {
		testName = result.TestPairedT
		statistic, pvalue = PairedTTest(first, last)
	} else {
		testName = result.TestWilcoxon
		if anyNonZero(diffs) {
			statistic, pvalue = WilcoxonSignedRank(first, last)
		} else {
			statistic, pvalue = 0, 1
		}
	}

	return result.Row{
		Condition: condition,
		Variable:  variable,
		N:         len(first),
		MeanFirst: meanPropagating(first),
		MeanLast:  meanPropagating(last),
		ShapiroP:  shapiroP,
		Test:      testName,
		Statistic: statistic,
		PValue:    pvalue,
	}
}

// anyNonZero reports whether any difference departs from zero. NaN counts as
// a departure.
func anyNonZero(diffs []float64) bool {
	for _, d := range diffs {
		if d != 0 {
			return true
		}
	}
	return false
}
