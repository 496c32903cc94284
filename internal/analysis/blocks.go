package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"ttlearn/domain/trial"
)

// BlockMeansFromRecords computes per-variable means over the first and last
// blocks of loaded records. The variable set is the union of what the first
// block's records carry, in first-seen order; a variable carried by the first
// block but absent from every last-block record is an error.
func BlockMeansFromRecords(first, last []trial.Record) (trial.BlockMeans, error) {
	var variables []string
	seen := make(map[string]bool)
	for _, rec := range first {
		for _, name := range rec.Names {
			if !seen[name] {
				seen[name] = true
				variables = append(variables, name)
			}
		}
	}

	firstMeans := make(map[string]float64, len(variables))
	lastMeans := make(map[string]float64, len(variables))
	for _, v := range variables {
		if !blockHas(last, v) {
			return trial.BlockMeans{}, fmt.Errorf("variable %q missing from last block", v)
		}
		firstMeans[v] = blockMean(first, v)
		lastMeans[v] = blockMean(last, v)
	}

	return trial.BlockMeans{Variables: variables, First: firstMeans, Last: lastMeans}, nil
}

// blockMean averages the variable's present, numeric values across records.
// With none it returns NaN.
func blockMean(records []trial.Record, variable string) float64 {
	var vals []float64
	for _, rec := range records {
		if v, ok := rec.Values[variable]; ok && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	m, _ := stats.Mean(vals)
	return m
}

func blockHas(records []trial.Record, variable string) bool {
	for _, rec := range records {
		if _, ok := rec.Values[variable]; ok {
			return true
		}
	}
	return false
}

// meanPropagating averages values without skipping NaN, so a single missing
// participant mean poisons the aggregate mean.
func meanPropagating(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return math.NaN()
	}
	return m
}
