package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
)

// PairedTTest computes the paired-samples t statistic and exact two-tailed
// p-value for first against last. Pairs where either side is NaN are omitted.
// Fewer than two usable pairs yield (NaN, NaN).
func PairedTTest(first, last []float64) (float64, float64) {
	diffs := make([]float64, 0, len(first))
	for i := range first {
		if math.IsNaN(first[i]) || math.IsNaN(last[i]) {
			continue
		}
		diffs = append(diffs, first[i]-last[i])
	}

	n := len(diffs)
	if n < 2 {
		return math.NaN(), math.NaN()
	}

	mean, _ := stats.Mean(diffs)
	sd, _ := stats.StandardDeviationSample(diffs)
	statistic := mean / (sd / math.Sqrt(float64(n)))
	return statistic, dist.TTestPValue(statistic, n-1)
}
