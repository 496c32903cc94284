package app

import (
	"context"

	"ttlearn/domain/core"
	"ttlearn/domain/run"
	"ttlearn/internal/errors"
	"ttlearn/ports"
)

// HistoryService exposes recorded runs to the CLI and the HTTP API.
type HistoryService struct {
	runs ports.RunRepository
}

// NewHistoryService creates a history service over the run repository.
func NewHistoryService(runs ports.RunRepository) *HistoryService {
	return &HistoryService{runs: runs}
}

// List returns the most recent runs, newest first. A limit below one falls
// back to the repository default.
func (s *HistoryService) List(ctx context.Context, limit int) ([]run.Run, error) {
	if s.runs == nil {
		return nil, errors.ConfigInvalid("run history is not configured")
	}
	return s.runs.ListRuns(ctx, limit)
}

// Get returns one run with its result table.
func (s *HistoryService) Get(ctx context.Context, id core.RunID) (*run.Run, error) {
	if s.runs == nil {
		return nil, errors.ConfigInvalid("run history is not configured")
	}
	return s.runs.GetRun(ctx, id)
}

// Latest returns the most recently created run with its result table.
func (s *HistoryService) Latest(ctx context.Context) (*run.Run, error) {
	if s.runs == nil {
		return nil, errors.ConfigInvalid("run history is not configured")
	}
	return s.runs.LatestRun(ctx)
}
