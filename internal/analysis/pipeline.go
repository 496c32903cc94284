package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"ttlearn/domain/core"
	"ttlearn/domain/result"
	"ttlearn/domain/trial"
	"ttlearn/internal"
	"ttlearn/ports"
)

// LogFunc receives progress lines as the pipeline works through participants.
type LogFunc func(line string)

// Params carries everything one analysis run needs.
type Params struct {
	Mode        trial.Mode
	DataRoot    string
	NTrials     int
	TimelineDir string
	Outcome     trial.Outcome
}

// RunStats counts per-participant outcomes across a run.
type RunStats struct {
	Processed int
	Skipped   int
}

// Pipeline executes the full analysis over a data root: condition directories
// are filtered to the target set, participants are aggregated through the
// mode-appropriate locator, and each condition/variable pair yields one
// result row.
type Pipeline struct {
	reader ports.TableReader
	logf   LogFunc
	logger *internal.Logger
}

// NewPipeline creates a pipeline reading trial files through reader and
// reporting progress through logFn. A nil logFn discards progress lines.
func NewPipeline(reader ports.TableReader, logFn LogFunc) *Pipeline {
	if logFn == nil {
		logFn = func(string) {}
	}
	return &Pipeline{
		reader: reader,
		logf:   logFn,
		logger: internal.NewDefaultLogger(),
	}
}

// Run walks the data root in ascending name order and returns the result
// table. Per-participant failures are logged and skipped; only a failure to
// enumerate the data root itself aborts.
func (p *Pipeline) Run(params Params) ([]result.Row, RunStats, error) {
	var (
		rows   []result.Row
		counts RunStats
	)

	if params.NTrials < 1 {
		return nil, counts, fmt.Errorf("trial count must be at least 1, got %d", params.NTrials)
	}
	entries, err := os.ReadDir(params.DataRoot)
	if err != nil {
		return nil, counts, fmt.Errorf("failed to read data root %s: %w", params.DataRoot, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if !trial.IsTargetCondition(entry.Name()) {
			p.logf(fmt.Sprintf("Ignoring non-target folder: %s", entry.Name()))
			continue
		}
		condRows, condCounts := p.runCondition(params, entry.Name())
		rows = append(rows, condRows...)
		counts.Processed += condCounts.Processed
		counts.Skipped += condCounts.Skipped
	}
	return rows, counts, nil
}

// runCondition aggregates every participant directory under one condition and
// emits the condition's result rows.
func (p *Pipeline) runCondition(params Params, condition string) ([]result.Row, RunStats) {
	var counts RunStats
	agg := trial.NewAggregate()

	p.logf(fmt.Sprintf("Processing Condition: %s...", condition))

	condDir := filepath.Join(params.DataRoot, condition)
	entries, err := os.ReadDir(condDir)
	if err != nil {
		p.logger.Error("failed to read condition directory %s: %v", condDir, err)
		return nil, counts
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		participant := entry.Name()
		partDir := filepath.Join(condDir, participant)

		var means trial.BlockMeans
		var gatherErr error
		if params.Mode == trial.ModeTimeline {
			means, gatherErr = p.gatherTimelineMeans(partDir, params.TimelineDir, participant, condition, params.NTrials)
		} else {
			means, gatherErr = p.gatherOutcomeMeans(partDir, participant, params.Outcome, params.NTrials)
		}
		if gatherErr != nil {
			counts.Skipped++
			if core.IsExpectedSkip(gatherErr) {
				p.logf(fmt.Sprintf("  - Skipping P '%s': %v", participant, gatherErr))
			} else {
				p.logf(fmt.Sprintf("  - An unexpected error occurred with P '%s'. Skipping.", participant))
				p.logf(core.NewParticipantFailure(participant, gatherErr).Error())
			}
			continue
		}

		agg.Add(means)
		counts.Processed++
	}

	label := condition
	if params.Mode == trial.ModeOutcome {
		label = fmt.Sprintf("%s (%s)", condition, params.Outcome)
	}

	var rows []result.Row
	for _, variable := range agg.Variables() {
		first, last := agg.Series(variable)
		rows = append(rows, CompareSeries(label, variable, first, last))
	}
	return rows, counts
}
