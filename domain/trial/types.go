package trial

import (
	"fmt"
	"strings"
)

// Mode selects how a participant's trials are partitioned into first/last blocks.
type Mode string

const (
	// ModeTimeline orders trials by the participant's chronological timeline record.
	ModeTimeline Mode = "timeline"
	// ModeOutcome orders trials by the numeric index of files in one outcome folder.
	ModeOutcome Mode = "outcome"
)

// ParseMode validates a mode string
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTimeline:
		return ModeTimeline, nil
	case ModeOutcome:
		return ModeOutcome, nil
	}
	return "", fmt.Errorf("unknown analysis mode %q (want timeline or outcome)", s)
}

// Outcome labels the trial result bucket used in outcome mode.
type Outcome string

const (
	OutcomeWin  Outcome = "Win"
	OutcomeLoss Outcome = "Loss"
)

// Folder returns the on-disk subfolder name for this outcome.
func (o Outcome) Folder() string {
	return strings.ToLower(string(o))
}

// ParseOutcome validates an outcome string
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win":
		return OutcomeWin, nil
	case "loss":
		return OutcomeLoss, nil
	}
	return "", fmt.Errorf("unknown outcome %q (want Win or Loss)", s)
}

// Target conditions are fixed: only these top-level folders are analyzed.
var targetConditions = []string{"serve", "return"}

// TargetConditions returns the recognized condition folder names.
func TargetConditions() []string {
	out := make([]string, len(targetConditions))
	copy(out, targetConditions)
	return out
}

// IsTargetCondition reports whether a folder name is a recognized condition,
// case-insensitively.
func IsTargetCondition(name string) bool {
	lower := strings.ToLower(name)
	for _, c := range targetConditions {
		if lower == c {
			return true
		}
	}
	return false
}

// Table is one raw tabular record: trimmed headers plus string cell rows.
// Readers produce it; interpretation (which columns mean what) happens later.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Record maps variable name to measured value for one trial. Names keeps the
// row order of the source record; duplicate variable rows keep the first value.
type Record struct {
	Names  []string
	Values map[string]float64
}

// NewRecord creates an empty trial record
func NewRecord() *Record {
	return &Record{Values: make(map[string]float64)}
}

// Set adds a variable to the record, preserving first-seen order and value.
func (r *Record) Set(name string, value float64) {
	if _, seen := r.Values[name]; seen {
		return
	}
	r.Names = append(r.Names, name)
	r.Values[name] = value
}

// Len returns the number of variables in the record
func (r *Record) Len() int {
	return len(r.Names)
}

// BlockMeans holds one participant's per-variable first/last block means.
// Variables carries the first block's variable order; a variable present only
// in the last block is not reported.
type BlockMeans struct {
	Variables []string
	First     map[string]float64
	Last      map[string]float64
}

// Aggregate accumulates per-participant block means for one condition.
// For every variable it keeps two index-aligned series: element i of both
// comes from the same participant. Variable order is first-seen order.
type Aggregate struct {
	vars  []string
	first map[string][]float64
	last  map[string][]float64
}

// NewAggregate creates an empty condition aggregate
func NewAggregate() *Aggregate {
	return &Aggregate{
		first: make(map[string][]float64),
		last:  make(map[string][]float64),
	}
}

// Add folds one participant's block means into the aggregate.
func (a *Aggregate) Add(m BlockMeans) {
	for _, v := range m.Variables {
		if _, seen := a.first[v]; !seen {
			a.vars = append(a.vars, v)
		}
		a.first[v] = append(a.first[v], m.First[v])
		a.last[v] = append(a.last[v], m.Last[v])
	}
}

// Variables returns the accumulated variable names in first-seen order.
func (a *Aggregate) Variables() []string {
	out := make([]string, len(a.vars))
	copy(out, a.vars)
	return out
}

// Series returns the aligned first/last mean series for one variable.
func (a *Aggregate) Series(variable string) (first, last []float64) {
	return a.first[variable], a.last[variable]
}

// Empty reports whether any participant contributed.
func (a *Aggregate) Empty() bool {
	return len(a.vars) == 0
}
