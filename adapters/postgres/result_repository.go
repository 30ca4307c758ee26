package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gopvt/domain/core"
	"gopvt/domain/run"
	"gopvt/ports"
)

// resultRepository implements the ResultRepository interface
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// EnsureSchema creates the run and score tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pvt_runs (
		id                 TEXT PRIMARY KEY,
		source             TEXT NOT NULL,
		session_statistic  TEXT NOT NULL,
		baseline_statistic TEXT NOT NULL,
		filtering_factor   DOUBLE PRECISION,
		measurement_count  INTEGER NOT NULL,
		score_count        INTEGER NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS pvt_scores (
		run_id        TEXT NOT NULL REFERENCES pvt_runs(id) ON DELETE CASCADE,
		user_id       TEXT NOT NULL,
		session       TEXT NOT NULL,
		response_time DOUBLE PRECISION NOT NULL,
		rrt           DOUBLE PRECISION NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pvt_scores_run ON pvt_scores(run_id);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun stores a run and its scores in one transaction.
func (r *resultRepository) SaveRun(ctx context.Context, rn run.Run, scores []run.Score) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO pvt_runs (
		id, source, session_statistic, baseline_statistic, filtering_factor,
		measurement_count, score_count, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rn.ID, rn.Source, rn.SessionStatistic, rn.BaselineStatistic, rn.FilteringFactor,
		rn.MeasurementCount, rn.ScoreCount, rn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, s := range scores {
		_, err = tx.ExecContext(ctx, `INSERT INTO pvt_scores (
			run_id, user_id, session, response_time, rrt
		) VALUES ($1, $2, $3, $4, $5)`,
			rn.ID, s.UserID, s.SessionID, s.ResponseTime, s.RRT,
		)
		if err != nil {
			return fmt.Errorf("failed to insert score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its ID
func (r *resultRepository) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	var rn run.Run
	err := r.db.GetContext(ctx, &rn, `SELECT
		id, source, session_statistic, baseline_statistic, filtering_factor,
		measurement_count, score_count, created_at
	FROM pvt_runs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("run", id.String())
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &rn, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *resultRepository) ListRuns(ctx context.Context, limit int) ([]run.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []run.Run
	err := r.db.SelectContext(ctx, &runs, `SELECT
		id, source, session_statistic, baseline_statistic, filtering_factor,
		measurement_count, score_count, created_at
	FROM pvt_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetScores returns the scored sessions of one run.
func (r *resultRepository) GetScores(ctx context.Context, id core.RunID) ([]run.Score, error) {
	var scores []run.Score
	err := r.db.SelectContext(ctx, &scores, `SELECT
		run_id, user_id, session, response_time, rrt
	FROM pvt_scores WHERE run_id = $1 ORDER BY user_id, session`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}
	return scores, nil
}
