package db

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"ttlearn/domain/core"
	"ttlearn/domain/result"
	"ttlearn/domain/run"
	"ttlearn/internal/errors"
	"ttlearn/ports"
)

const defaultListLimit = 50

// RunRepositoryImpl implements RunRepository over sqlx. Queries are written
// with ? placeholders and rebound for the active driver.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

const runColumns = `id, created_at, mode, data_root, timeline_dir, outcome, n_trials, status, processed, skipped, error`

type runRecord struct {
	ID          string    `db:"id"`
	CreatedAt   time.Time `db:"created_at"`
	Mode        string    `db:"mode"`
	DataRoot    string    `db:"data_root"`
	TimelineDir string    `db:"timeline_dir"`
	Outcome     string    `db:"outcome"`
	NTrials     int       `db:"n_trials"`
	Status      string    `db:"status"`
	Processed   int       `db:"processed"`
	Skipped     int       `db:"skipped"`
	Error       string    `db:"error"`
}

func (rec runRecord) toDomain() run.Run {
	return run.Run{
		ID:          core.RunID(rec.ID),
		CreatedAt:   core.NewTimestamp(rec.CreatedAt),
		Mode:        rec.Mode,
		DataRoot:    rec.DataRoot,
		TimelineDir: rec.TimelineDir,
		Outcome:     rec.Outcome,
		NTrials:     rec.NTrials,
		Status:      rec.Status,
		Processed:   rec.Processed,
		Skipped:     rec.Skipped,
		Error:       rec.Error,
	}
}

type resultRecord struct {
	RunID     string          `db:"run_id"`
	Ord       int             `db:"ord"`
	Condition string          `db:"condition"`
	Variable  string          `db:"variable"`
	N         int             `db:"n"`
	MeanFirst sql.NullFloat64 `db:"mean_first"`
	MeanLast  sql.NullFloat64 `db:"mean_last"`
	ShapiroP  sql.NullFloat64 `db:"shapiro_p"`
	Test      string          `db:"test"`
	Statistic sql.NullFloat64 `db:"statistic"`
	PValue    sql.NullFloat64 `db:"p_value"`
}

func (rec resultRecord) toDomain() result.Row {
	return result.Row{
		Condition: rec.Condition,
		Variable:  rec.Variable,
		N:         rec.N,
		MeanFirst: floatValue(rec.MeanFirst),
		MeanLast:  floatValue(rec.MeanLast),
		ShapiroP:  floatValue(rec.ShapiroP),
		Test:      rec.Test,
		Statistic: floatValue(rec.Statistic),
		PValue:    floatValue(rec.PValue),
	}
}

// CreateRun inserts a new run in its initial state.
func (r *RunRepositoryImpl) CreateRun(ctx context.Context, rn run.Run) error {
	query := r.db.Rebind(`
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		rn.ID.String(), rn.CreatedAt.Time(), rn.Mode, rn.DataRoot, rn.TimelineDir,
		rn.Outcome, rn.NTrials, rn.Status, rn.Processed, rn.Skipped, rn.Error)
	if err != nil {
		return errors.Wrap(err, "failed to insert run")
	}
	return nil
}

// FinishRun stores the run's terminal state together with its result table.
func (r *RunRepositoryImpl) FinishRun(ctx context.Context, rn run.Run) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE runs SET status = ?, processed = ?, skipped = ?, error = ? WHERE id = ?
	`), rn.Status, rn.Processed, rn.Skipped, rn.Error, rn.ID.String())
	if err != nil {
		return errors.Wrap(err, "failed to update run")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errors.NotFound("run " + rn.ID.String())
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM result_rows WHERE run_id = ?`), rn.ID.String()); err != nil {
		return errors.Wrap(err, "failed to clear result rows")
	}

	insert := tx.Rebind(`
		INSERT INTO result_rows (run_id, ord, condition, variable, n, mean_first, mean_last, shapiro_p, test, statistic, p_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for i, row := range rn.Rows {
		_, err := tx.ExecContext(ctx, insert,
			rn.ID.String(), i, row.Condition, row.Variable, row.N,
			nullFloat(row.MeanFirst), nullFloat(row.MeanLast), nullFloat(row.ShapiroP),
			row.Test, nullFloat(row.Statistic), nullFloat(row.PValue))
		if err != nil {
			return errors.Wrap(err, "failed to insert result row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit run results")
	}
	return nil
}

// GetRun returns one run with its result table.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	var rec runRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(`
		SELECT `+runColumns+` FROM runs WHERE id = ?
	`), id.String())
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("run " + id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load run")
	}

	rn := rec.toDomain()
	rows, err := r.loadRows(ctx, id)
	if err != nil {
		return nil, err
	}
	rn.Rows = rows
	return &rn, nil
}

// ListRuns returns the most recent runs, newest first, without result tables.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]run.Run, error) {
	if limit < 1 {
		limit = defaultListLimit
	}

	var recs []runRecord
	err := r.db.SelectContext(ctx, &recs, r.db.Rebind(`
		SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?
	`), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}

	runs := make([]run.Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.toDomain())
	}
	return runs, nil
}

// LatestRun returns the most recently created run with its result table.
func (r *RunRepositoryImpl) LatestRun(ctx context.Context) (*run.Run, error) {
	var rec runRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT 1
	`)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("latest run")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load latest run")
	}

	rn := rec.toDomain()
	rows, err := r.loadRows(ctx, rn.ID)
	if err != nil {
		return nil, err
	}
	rn.Rows = rows
	return &rn, nil
}

func (r *RunRepositoryImpl) loadRows(ctx context.Context, id core.RunID) ([]result.Row, error) {
	var recs []resultRecord
	err := r.db.SelectContext(ctx, &recs, r.db.Rebind(`
		SELECT run_id, ord, condition, variable, n, mean_first, mean_last, shapiro_p, test, statistic, p_value
		FROM result_rows WHERE run_id = ? ORDER BY ord
	`), id.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load result rows")
	}

	if len(recs) == 0 {
		return nil, nil
	}
	rows := make([]result.Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, rec.toDomain())
	}
	return rows, nil
}

// nullFloat maps non-finite values to NULL so they round-trip through drivers
// that reject NaN and infinities.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatValue(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
