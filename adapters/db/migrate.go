package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"ttlearn/internal/errors"
)

// MigrationRunner creates the run history schema. Statements are written to
// execute unchanged on both PostgreSQL and SQLite.
type MigrationRunner struct {
	version string
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all schema migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}

	if err := r.createResultRowsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create result_rows table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			mode TEXT NOT NULL,
			data_root TEXT NOT NULL,
			timeline_dir TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL DEFAULT '',
			n_trials INTEGER NOT NULL,
			status TEXT NOT NULL,
			processed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

func (r *MigrationRunner) createResultRowsTable(ctx context.Context, db *sqlx.DB) error {
	// Float columns are nullable: NULL stands in for values that are not
	// finite in the result table.
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS result_rows (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			condition TEXT NOT NULL,
			variable TEXT NOT NULL,
			n INTEGER NOT NULL,
			mean_first DOUBLE PRECISION,
			mean_last DOUBLE PRECISION,
			shapiro_p DOUBLE PRECISION,
			test TEXT NOT NULL,
			statistic DOUBLE PRECISION,
			p_value DOUBLE PRECISION,
			PRIMARY KEY (run_id, ord)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)
	`)
	return err
}
