package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ttlearn/domain/core"
	"ttlearn/domain/trial"
)

// findTimelineFile locates the timeline record for a participant and
// condition. A candidate name must start with "<participant>_", contain
// "_<condition>_", and contain "timeline", all case-insensitive. Candidates
// are considered in ascending name order.
func (p *Pipeline) findTimelineFile(timelineDir, participant, condition string) (string, error) {
	notFound := fmt.Errorf("%w for participant %q and condition %q in %s",
		core.ErrTimelineNotFound, participant, condition, timelineDir)

	entries, err := os.ReadDir(timelineDir)
	if err != nil {
		return "", notFound
	}

	prefix := strings.ToLower(participant) + "_"
	marker := "_" + strings.ToLower(condition) + "_"
	for _, entry := range entries {
		if entry.IsDir() || !trial.IsRecordFile(entry.Name()) {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasPrefix(name, prefix) && strings.Contains(name, marker) && strings.Contains(name, "timeline") {
			return filepath.Join(timelineDir, entry.Name()), nil
		}
	}
	return "", notFound
}

// loadTimeline returns the participant's ordered event identifiers, one per
// timeline row, by concatenating the trimmed lowercased event type with the
// trimmed trial index.
func (p *Pipeline) loadTimeline(timelineDir, participant, condition string) ([]string, error) {
	path, err := p.findTimelineFile(timelineDir, participant, condition)
	if err != nil {
		return nil, err
	}

	table, err := p.reader.ReadTable(path)
	if err != nil {
		return nil, err
	}

	typeIdx, trialIdx := -1, -1
	for i, h := range table.Headers {
		lower := strings.ToLower(h)
		if typeIdx == -1 && strings.Contains(lower, "type") {
			typeIdx = i
		}
		if trialIdx == -1 && strings.Contains(lower, "trial") {
			trialIdx = i
		}
	}
	if typeIdx == -1 || trialIdx == -1 {
		return nil, core.NewSchemaError("could not find 'type' and 'trial' columns in timeline record")
	}

	ids := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		var event, index string
		if typeIdx < len(row) {
			event = row[typeIdx]
		}
		if trialIdx < len(row) {
			index = row[trialIdx]
		}
		ids = append(ids, strings.ToLower(strings.TrimSpace(event))+strings.TrimSpace(index))
	}
	return ids, nil
}

// gatherTimelineMeans computes block means over the participant's first and
// last N timeline events.
func (p *Pipeline) gatherTimelineMeans(partDir, timelineDir, participant, condition string, n int) (trial.BlockMeans, error) {
	timeline, err := p.loadTimeline(timelineDir, participant, condition)
	if err != nil {
		return trial.BlockMeans{}, err
	}
	if len(timeline) < 2*n {
		return trial.BlockMeans{}, fmt.Errorf("%w: %s has only %d events (need at least %d)",
			core.ErrInsufficientData, participant, len(timeline), 2*n)
	}

	first, err := p.loadTrials(partDir, condition, timeline[:n])
	if err != nil {
		return trial.BlockMeans{}, err
	}
	last, err := p.loadTrials(partDir, condition, timeline[len(timeline)-n:])
	if err != nil {
		return trial.BlockMeans{}, err
	}
	return BlockMeansFromRecords(first, last)
}

func (p *Pipeline) loadTrials(partDir, condition string, ids []string) ([]trial.Record, error) {
	records := make([]trial.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := p.loadTrialByEventID(partDir, condition, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// loadTrialByEventID resolves a composite identifier to a trial file inside
// the participant's category subdirectory and loads it. Both the full
// category name and its first letter are accepted as filename prefixes.
func (p *Pipeline) loadTrialByEventID(partDir, condition, rawID string) (trial.Record, error) {
	id, err := trial.ParseEventID(rawID)
	if err != nil {
		return trial.Record{}, err
	}

	searchDir := filepath.Join(partDir, id.Category)
	info, err := os.Stat(searchDir)
	if err != nil || !info.IsDir() {
		return trial.Record{}, fmt.Errorf("%w: subfolder %q in %s", core.ErrNotFound, id.Category, partDir)
	}

	participant := filepath.Base(partDir)
	patternFull := strings.ToLower(fmt.Sprintf("%s_%s_%s%s.", participant, condition, id.Category, id.Index))
	patternAbbr := strings.ToLower(fmt.Sprintf("%s_%s_%s%s.", participant, condition, id.Category[:1], id.Index))

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return trial.Record{}, fmt.Errorf("failed to read subfolder %s: %w", searchDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !trial.IsRecordFile(entry.Name()) {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasPrefix(name, patternFull) || strings.HasPrefix(name, patternAbbr) {
			return LoadRecord(p.reader, filepath.Join(searchDir, entry.Name()))
		}
	}
	return trial.Record{}, fmt.Errorf("%w matching %q or %q in %s",
		core.ErrTrialNotFound, patternFull, patternAbbr, searchDir)
}
