package app

import (
	"context"
	"fmt"
	"os"

	"ttlearn/domain/core"
	"ttlearn/domain/result"
	"ttlearn/domain/run"
	"ttlearn/domain/trial"
	"ttlearn/internal"
	"ttlearn/internal/analysis"
	"ttlearn/internal/errors"
	"ttlearn/ports"
)

// AnalysisService validates analysis requests, executes the pipeline and
// records each run in history.
type AnalysisService struct {
	reader ports.TableReader
	runs   ports.RunRepository
	logger *internal.Logger
}

// NewAnalysisService creates the service. The run repository may be nil, in
// which case runs execute without being recorded.
func NewAnalysisService(reader ports.TableReader, runs ports.RunRepository) *AnalysisService {
	return &AnalysisService{
		reader: reader,
		runs:   runs,
		logger: internal.NewDefaultLogger(),
	}
}

// AnalysisRequest carries the parameters for one analysis run. LogFn, when
// set, receives progress lines as the run advances.
type AnalysisRequest struct {
	Mode        string `json:"mode"`
	DataRoot    string `json:"data_root"`
	NTrials     int    `json:"n_trials"`
	TimelineDir string `json:"timeline_dir,omitempty"`
	Outcome     string `json:"outcome,omitempty"`

	LogFn analysis.LogFunc `json:"-"`
}

func (req AnalysisRequest) sink() analysis.LogFunc {
	if req.LogFn == nil {
		return func(string) {}
	}
	return req.LogFn
}

// Begin validates the request and records a new running entry in run history.
// Setup failures are reported through the request's log sink before the error
// is returned, and no entry is recorded for them.
func (s *AnalysisService) Begin(ctx context.Context, req AnalysisRequest) (*run.Run, error) {
	params, err := s.params(req)
	if err != nil {
		return nil, err
	}

	r := &run.Run{
		ID:          core.NewRunID(),
		CreatedAt:   core.Now(),
		Mode:        string(params.Mode),
		DataRoot:    params.DataRoot,
		TimelineDir: params.TimelineDir,
		NTrials:     params.NTrials,
		Status:      run.StatusRunning,
	}
	if params.Mode == trial.ModeOutcome {
		r.Outcome = string(params.Outcome)
	}

	if s.runs != nil {
		if err := s.runs.CreateRun(ctx, *r); err != nil {
			return nil, errors.Wrap(err, "failed to record analysis run")
		}
	}
	return r, nil
}

// Execute runs the pipeline for a previously begun run, streaming progress to
// the request's log sink and storing the terminal state in run history.
func (s *AnalysisService) Execute(ctx context.Context, r *run.Run, req AnalysisRequest) error {
	logf := req.sink()

	params, err := s.params(req)
	if err != nil {
		s.finish(ctx, r, nil, analysis.RunStats{}, err)
		return err
	}

	logf("Analysis started...")

	rows, stats, err := analysis.NewPipeline(s.reader, logf).Run(params)
	if err != nil {
		logf("")
		logf("A critical error occurred during analysis.")
		logf(err.Error())
		s.finish(ctx, r, nil, stats, err)
		return err
	}

	logf("")
	logf("--- Analysis Complete ---")
	logf(fmt.Sprintf("Processed %d participants (%d skipped) across %d variables.", stats.Processed, stats.Skipped, len(rows)))
	if len(rows) == 0 {
		logf("Analysis finished, but no data was successfully processed.")
	} else {
		for _, line := range result.Findings(rows, params.NTrials) {
			logf(line)
		}
	}

	s.finish(ctx, r, rows, stats, nil)
	return nil
}

// Abort marks a begun run as failed without executing it.
func (s *AnalysisService) Abort(ctx context.Context, r *run.Run, reason string) {
	s.finish(ctx, r, nil, analysis.RunStats{}, errors.InternalError(reason))
}

// Run begins and executes an analysis synchronously, returning the finished
// run with its result table attached.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*run.Run, error) {
	r, err := s.Begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Execute(ctx, r, req); err != nil {
		return r, err
	}
	return r, nil
}

// params converts the request into pipeline parameters. Missing directories
// are reported through the log sink the same way progress lines are.
func (s *AnalysisService) params(req AnalysisRequest) (analysis.Params, error) {
	logf := req.sink()

	mode, err := trial.ParseMode(req.Mode)
	if err != nil {
		return analysis.Params{}, errors.InvalidInput(err.Error())
	}
	if req.NTrials < 1 {
		return analysis.Params{}, errors.InvalidInput("n_trials must be at least 1")
	}

	params := analysis.Params{
		Mode:     mode,
		DataRoot: req.DataRoot,
		NTrials:  req.NTrials,
	}

	if !isDir(req.DataRoot) {
		logf("Error: Data Root directory not found.")
		return analysis.Params{}, errors.InvalidInput("data root directory not found")
	}

	switch mode {
	case trial.ModeTimeline:
		if !isDir(req.TimelineDir) {
			logf("Error: Timeline directory not found.")
			return analysis.Params{}, errors.InvalidInput("timeline directory not found")
		}
		params.TimelineDir = req.TimelineDir
	case trial.ModeOutcome:
		outcome, err := trial.ParseOutcome(req.Outcome)
		if err != nil {
			return analysis.Params{}, errors.InvalidInput(err.Error())
		}
		params.Outcome = outcome
	}

	return params, nil
}

func (s *AnalysisService) finish(ctx context.Context, r *run.Run, rows []result.Row, stats analysis.RunStats, runErr error) {
	r.Rows = rows
	r.Processed = stats.Processed
	r.Skipped = stats.Skipped
	if runErr != nil {
		r.Status = run.StatusFailed
		r.Error = runErr.Error()
	} else {
		r.Status = run.StatusCompleted
	}

	if s.runs == nil {
		return
	}
	if err := s.runs.FinishRun(ctx, *r); err != nil {
		s.logger.Error("failed to record run %s: %v", r.ID, err)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
