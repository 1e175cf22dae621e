package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/itinerary-planner/backend/internal/storage/models"
)

// RunRepository provides data access for the optimizer run journal.
type RunRepository struct {
	BaseRepository
}

// NewRunRepository creates a new optimizer run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Record inserts a completed run. Missing IDs and timestamps are filled in.
func (r *RunRepository) Record(ctx context.Context, run *models.OptimizerRun) error {
	if run.ID == "" {
		run.ID = GenerateID()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = r.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO optimizer_runs (
			id, session_id, generation, run_trigger, transport_mode, start_date, end_date,
			place_count, event_count, outcome, severity, error_message, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.SessionID, run.Generation, run.Trigger, run.TransportMode,
		run.StartDate, run.EndDate, run.PlaceCount, run.EventCount, run.Outcome,
		run.Severity, run.ErrorMessage, run.StartedAt, run.FinishedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting optimizer run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its ID. It returns nil if no run matches.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.OptimizerRun, error) {
	rows, err := r.DB().QueryContext(ctx, selectRuns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying optimizer run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// ListBySession returns the most recent runs of a session, newest first.
func (r *RunRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*models.OptimizerRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB().QueryContext(ctx,
		selectRuns+` WHERE session_id = ? ORDER BY started_at DESC, generation DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying optimizer runs: %w", err)
	}
	return scanRuns(rows)
}

// PruneBefore deletes runs that finished before cutoff and returns how many were removed.
func (r *RunRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := r.Transaction(func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM optimizer_runs WHERE finished_at < ?`, cutoff.UTC())
		if err != nil {
			return fmt.Errorf("deleting optimizer runs: %w", err)
		}
		removed, err = result.RowsAffected()
		return err
	})
	return removed, err
}

const selectRuns = `
	SELECT id, session_id, generation, run_trigger, transport_mode, start_date, end_date,
	       place_count, event_count, outcome, severity, error_message, started_at, finished_at
	FROM optimizer_runs`

func scanRuns(rows *sql.Rows) ([]*models.OptimizerRun, error) {
	defer rows.Close()

	var runs []*models.OptimizerRun
	for rows.Next() {
		run := &models.OptimizerRun{}
		if err := rows.Scan(
			&run.ID, &run.SessionID, &run.Generation, &run.Trigger, &run.TransportMode,
			&run.StartDate, &run.EndDate, &run.PlaceCount, &run.EventCount, &run.Outcome,
			&run.Severity, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning optimizer run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
