package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ttlearn/domain/result"
	"ttlearn/domain/run"
	"ttlearn/domain/trial"
)

// BuildMarkdownReport renders a finished run as a Markdown document with the
// run parameters, the full result table and the significance summary.
func BuildMarkdownReport(r run.Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Learning Effect Report\n\n")
	fmt.Fprintf(&b, "Run `%s` created %s.\n\n", r.ID, r.CreatedAt)

	b.WriteString("## Parameters\n\n")
	fmt.Fprintf(&b, "- **Mode:** %s\n", r.Mode)
	fmt.Fprintf(&b, "- **Data root:** %s\n", r.DataRoot)
	if r.Mode == string(trial.ModeTimeline) {
		fmt.Fprintf(&b, "- **Timeline directory:** %s\n", r.TimelineDir)
	}
	if r.Mode == string(trial.ModeOutcome) {
		fmt.Fprintf(&b, "- **Outcome:** %s\n", r.Outcome)
	}
	fmt.Fprintf(&b, "- **Trials per block:** %d\n", r.NTrials)
	fmt.Fprintf(&b, "- **Status:** %s (%d participants processed, %d skipped)\n\n", r.Status, r.Processed, r.Skipped)

	if r.Error != "" {
		fmt.Fprintf(&b, "## Error\n\n%s\n\n", r.Error)
	}

	if len(r.Rows) == 0 {
		b.WriteString("No data was successfully processed.\n")
		return b.String()
	}

	b.WriteString("## Results\n\n")
	writeMarkdownTable(&b, r.Rows)

	b.WriteString("\n## Findings\n\n")
	for _, line := range result.Findings(r.Rows, r.NTrials) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, rows []result.Row) {
	headers := result.Headers()
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, r := range rows {
		cells := []string{
			r.Condition,
			r.Variable,
			strconv.Itoa(r.N),
			reportFloat(r.MeanFirst),
			reportFloat(r.MeanLast),
			reportFloat(r.ShapiroP),
			r.Test,
			reportFloat(r.Statistic),
			reportFloat(r.PValue),
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// reportFloat renders a value for the report table. Non-finite values come
// out as an empty cell, matching the export writers.
func reportFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
