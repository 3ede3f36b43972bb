// Package postgres persists dashboard runs in Postgres as JSONB rows.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"vendalytics/domain/core"
	apperrors "vendalytics/internal/errors"
	"vendalytics/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// RunRepository is the sqlx-backed implementation of ports.RunRepository
type RunRepository struct {
	db *sqlx.DB
}

// Connect opens the database and ensures the schema exists
func Connect(url string) (*RunRepository, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect to postgres")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, apperrors.Wrap(err, "failed to ensure analysis_runs schema")
	}
	return &RunRepository{db: db}, nil
}

// Save inserts one completed run
func (r *RunRepository) Save(ctx context.Context, run ports.StoredRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, source, payload, created_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Source, run.Payload, run.CreatedAt)
	return apperrors.Wrap(err, "failed to save analysis run")
}

// Get fetches one run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (ports.StoredRun, error) {
	var run ports.StoredRun
	err := r.db.GetContext(ctx, &run,
		`SELECT id, source, payload, created_at FROM analysis_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return run, core.ErrRunNotFound
	}
	return run, apperrors.Wrap(err, "failed to load analysis run")
}

// List returns the most recent runs
func (r *RunRepository) List(ctx context.Context, limit int) ([]ports.StoredRun, error) {
	var runs []ports.StoredRun
	err := r.db.SelectContext(ctx, &runs,
		`SELECT id, source, payload, created_at FROM analysis_runs ORDER BY created_at DESC LIMIT $1`, limit)
	return runs, apperrors.Wrap(err, "failed to list analysis runs")
}

// Close releases the underlying connection pool
func (r *RunRepository) Close() error {
	return r.db.Close()
}

var _ ports.RunRepository = (*RunRepository)(nil)
