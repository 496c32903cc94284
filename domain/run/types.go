package run

import (
	"ttlearn/domain/core"
	"ttlearn/domain/result"
)

// Lifecycle states for a recorded run.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded execution of the analysis pipeline, together with the
// parameters that produced it. Rows is populated on demand by the repository.
type Run struct {
	ID          core.RunID     `json:"id" db:"id"`
	CreatedAt   core.Timestamp `json:"created_at" db:"created_at"`
	Mode        string         `json:"mode" db:"mode"`
	DataRoot    string         `json:"data_root" db:"data_root"`
	TimelineDir string         `json:"timeline_dir,omitempty" db:"timeline_dir"`
	Outcome     string         `json:"outcome,omitempty" db:"outcome"`
	NTrials     int            `json:"n_trials" db:"n_trials"`
	Status      string         `json:"status" db:"status"`
	Processed   int            `json:"processed" db:"processed"`
	Skipped     int            `json:"skipped" db:"skipped"`
	Error       string         `json:"error,omitempty" db:"error"`

	Rows []result.Row `json:"rows,omitempty" db:"-"`
}

// Finished reports whether the run has reached a terminal state.
func (r Run) Finished() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
