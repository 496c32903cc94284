package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"ttlearn/domain/core"
	"ttlearn/domain/trial"
)

// gatherOutcomeMeans computes block means over the participant's first and
// last N numbered trials within the outcome subfolder. Files without a
// trailing trial number are filtered out, and the remainder is sorted
// ascending by that number with ties kept in name order.
func (p *Pipeline) gatherOutcomeMeans(partDir, participant string, outcome trial.Outcome, n int) (trial.BlockMeans, error) {
	outcomeDir := filepath.Join(partDir, outcome.Folder())
	info, err := os.Stat(outcomeDir)
	if err != nil || !info.IsDir() {
		return trial.BlockMeans{}, fmt.Errorf("%w %q for participant %s",
			core.ErrOutcomeNotFound, outcome.Folder(), participant)
	}

	entries, err := os.ReadDir(outcomeDir)
	if err != nil {
		return trial.BlockMeans{}, fmt.Errorf("failed to read outcome folder %s: %w", outcomeDir, err)
	}

	type numbered struct {
		name string
		num  int
	}
	var files []numbered
	for _, entry := range entries {
		if entry.IsDir() || !trial.IsRecordFile(entry.Name()) {
			continue
		}
		num := trial.TrialNumber(entry.Name())
		if num == trial.NoTrialNumber {
			continue
		}
		files = append(files, numbered{name: entry.Name(), num: num})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].num < files[j].num })

	if len(files) == 0 {
		return trial.BlockMeans{}, fmt.Errorf("%w: no numbered trial records in %s", core.ErrNotFound, outcomeDir)
	}
	if len(files) < 2*n {
		return trial.BlockMeans{}, fmt.Errorf("%w: %s has only %d '%s' files (need at least %d)",
			core.ErrInsufficientData, participant, len(files), outcome, 2*n)
	}

	load := func(block []numbered) ([]trial.Record, error) {
		records := make([]trial.Record, 0, len(block))
		for _, f := range block {
			rec, err := LoadRecord(p.reader, filepath.Join(outcomeDir, f.name))
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		return records, nil
	}

	first, err := load(files[:n])
	if err != nil {
		return trial.BlockMeans{}, err
	}
	last, err := load(files[len(files)-n:])
	if err != nil {
		return trial.BlockMeans{}, err
	}
	return BlockMeansFromRecords(first, last)
}
