package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusight/prism/internal/models"
)

// BatchRepository persists batch run summaries. Rows are append-only:
// Create opens the run and Finish writes the terminal state once.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs a BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

type batchRunRow struct {
	models.BatchRun
	ErrorsJSON []byte `db:"errors"`
}

// Create opens a new batch run record.
func (r *BatchRepository) Create(ctx context.Context, run *models.BatchRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = models.BatchRunStatusRunning
	const query = `INSERT INTO batch_runs (id, run_date, config_name, started_at, status, processed, skipped,
        thriving_count, healthy_count, support_count, at_risk_count, insufficient_count, errors)
        VALUES ($1, $2, $3, $4, $5, 0, 0, 0, 0, 0, 0, 0, '[]')`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.RunDate, run.ConfigName, run.StartedAt, run.Status); err != nil {
		return fmt.Errorf("create batch run: %w", err)
	}
	return nil
}

// Finish writes the terminal state of a run.
func (r *BatchRepository) Finish(ctx context.Context, run *models.BatchRun) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("marshal batch errors: %w", err)
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	const query = `UPDATE batch_runs SET finished_at = $2, status = $3, processed = $4, skipped = $5,
        thriving_count = $6, healthy_count = $7, support_count = $8, at_risk_count = $9,
        insufficient_count = $10, errors = $11 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.FinishedAt, run.Status, run.Processed, run.Skipped,
		run.Thriving, run.HealthyProgress, run.NeedsSupport, run.AtRisk, run.InsufficientData, errorsJSON); err != nil {
		return fmt.Errorf("finish batch run: %w", err)
	}
	return nil
}

// FindByID fetches one batch run.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.BatchRun, error) {
	const query = `SELECT id, run_date, config_name, started_at, finished_at, status, processed, skipped,
        thriving_count, healthy_count, support_count, at_risk_count, insufficient_count, errors
        FROM batch_runs WHERE id = $1`
	var row batchRunRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// FindLatestCompleted returns the most recent completed run, or nil.
func (r *BatchRepository) FindLatestCompleted(ctx context.Context) (*models.BatchRun, error) {
	const query = `SELECT id, run_date, config_name, started_at, finished_at, status, processed, skipped,
        thriving_count, healthy_count, support_count, at_risk_count, insufficient_count, errors
        FROM batch_runs WHERE status = $1 ORDER BY started_at DESC LIMIT 1`
	var row batchRunRow
	if err := r.db.GetContext(ctx, &row, query, models.BatchRunStatusCompleted); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row.toModel()
}

// List returns recent batch runs, newest first.
func (r *BatchRepository) List(ctx context.Context, limit int) ([]models.BatchRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	const query = `SELECT id, run_date, config_name, started_at, finished_at, status, processed, skipped,
        thriving_count, healthy_count, support_count, at_risk_count, insufficient_count, errors
        FROM batch_runs ORDER BY started_at DESC LIMIT $1`
	var rows []batchRunRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list batch runs: %w", err)
	}
	runs := make([]models.BatchRun, 0, len(rows))
	for _, row := range rows {
		run, err := row.toModel()
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

func (row *batchRunRow) toModel() (*models.BatchRun, error) {
	run := row.BatchRun
	if len(row.ErrorsJSON) > 0 {
		if err := json.Unmarshal(row.ErrorsJSON, &run.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal batch errors: %w", err)
		}
	}
	return &run, nil
}
