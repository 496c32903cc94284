package ui

import (
	"math"

	"ttlearn/domain/core"
	"ttlearn/domain/result"
	"ttlearn/domain/run"
)

// RowDTO mirrors a result row with non-finite statistics rendered as JSON
// null instead of values encoding/json cannot emit.
type RowDTO struct {
	Condition string   `json:"condition"`
	Variable  string   `json:"variable"`
	N         int      `json:"n"`
	MeanFirst *float64 `json:"mean_first"`
	MeanLast  *float64 `json:"mean_last"`
	ShapiroP  *float64 `json:"shapiro_p"`
	Test      string   `json:"test"`
	Statistic *float64 `json:"statistic"`
	PValue    *float64 `json:"p_value"`
}

// RunDTO is the API representation of a recorded run.
type RunDTO struct {
	ID          string         `json:"id"`
	CreatedAt   core.Timestamp `json:"created_at"`
	Mode        string         `json:"mode"`
	DataRoot    string         `json:"data_root"`
	TimelineDir string         `json:"timeline_dir,omitempty"`
	Outcome     string         `json:"outcome,omitempty"`
	NTrials     int            `json:"n_trials"`
	Status      string         `json:"status"`
	Processed   int            `json:"processed"`
	Skipped     int            `json:"skipped"`
	Error       string         `json:"error,omitempty"`
	Rows        []RowDTO       `json:"rows,omitempty"`
}

func newRowDTO(r result.Row) RowDTO {
	return RowDTO{
		Condition: r.Condition,
		Variable:  r.Variable,
		N:         r.N,
		MeanFirst: jsonFloat(r.MeanFirst),
		MeanLast:  jsonFloat(r.MeanLast),
		ShapiroP:  jsonFloat(r.ShapiroP),
		Test:      r.Test,
		Statistic: jsonFloat(r.Statistic),
		PValue:    jsonFloat(r.PValue),
	}
}

func newRunDTO(rn run.Run) RunDTO {
	dto := RunDTO{
		ID:          rn.ID.String(),
		CreatedAt:   rn.CreatedAt,
		Mode:        rn.Mode,
		DataRoot:    rn.DataRoot,
		TimelineDir: rn.TimelineDir,
		Outcome:     rn.Outcome,
		NTrials:     rn.NTrials,
		Status:      rn.Status,
		Processed:   rn.Processed,
		Skipped:     rn.Skipped,
		Error:       rn.Error,
	}
	for _, row := range rn.Rows {
		dto.Rows = append(dto.Rows, newRowDTO(row))
	}
	return dto
}

func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return pointer(v)
}

// pointer returns a pointer to the given value
func pointer[T any](v T) *T {
	return &v
}
