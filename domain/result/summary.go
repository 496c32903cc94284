package result

import "fmt"

// Findings renders the human-readable significance summary for a finished
// table, one line per slice element. Blank entries separate findings.
func Findings(rows []Row, nTrials int) []string {
	sig := Significant(rows)
	if len(sig) == 0 {
		return []string{fmt.Sprintf("No significant results found at α=%v across %d variables.", Alpha, len(rows))}
	}

	lines := []string{fmt.Sprintf("Found %d Significant Results (p < %v):", len(sig), Alpha)}
	for _, r := range sig {
		lines = append(lines,
			"",
			fmt.Sprintf("On average, %s was significantly %s in the Last %d trials.", r.Variable, r.Direction(), nTrials),
			fmt.Sprintf("Cond: %-20s | Var: %-30s | Test: %-15s | p=%.4f", r.Condition, r.Variable, r.Test, r.PValue),
			fmt.Sprintf("  (First %d Avg: %.3f, Last %d Avg: %.3f)", nTrials, r.MeanFirst, nTrials, r.MeanLast),
		)
	}
	return lines
}
