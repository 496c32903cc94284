package ports

import (
	"context"

	"ttlearn/domain/core"
	"ttlearn/domain/run"
)

// RunRepository defines the interface for run history persistence
type RunRepository interface {
	// CreateRun records a freshly started run
	CreateRun(ctx context.Context, r run.Run) error

	// FinishRun updates the run's terminal status and stores its result rows
	FinishRun(ctx context.Context, r run.Run) error

	// GetRun retrieves a run with its result rows
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)

	// ListRuns returns the most recent runs, newest first, without rows
	ListRuns(ctx context.Context, limit int) ([]run.Run, error)

	// LatestRun returns the most recently created run with its rows
	LatestRun(ctx context.Context) (*run.Run, error)
}
