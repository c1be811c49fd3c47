package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusight/prism/internal/models"
)

const resultColumns = `id, student_id, run_id, calculated_at, academic_score, psychological_score, physical_score,
        epr_score, performance_band, config_name, academic_weight, psychological_weight, physical_weight,
        thriving_threshold, healthy_threshold, support_threshold`

// ResultRepository persists computed EPR results. History is append-only;
// the upsert on (student_id, run_id) exists solely for idempotent retries
// within the same logical run.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Upsert writes a result atomically for one student and run.
func (r *ResultRepository) Upsert(ctx context.Context, result *models.EPRResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CalculatedAt.IsZero() {
		result.CalculatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO epr_results (id, student_id, run_id, calculated_at, academic_score, psychological_score,
        physical_score, epr_score, performance_band, config_name, academic_weight, psychological_weight, physical_weight,
        thriving_threshold, healthy_threshold, support_threshold)
        VALUES (:id, :student_id, :run_id, :calculated_at, :academic_score, :psychological_score,
        :physical_score, :epr_score, :performance_band, :config_name, :academic_weight, :psychological_weight, :physical_weight,
        :thriving_threshold, :healthy_threshold, :support_threshold)
        ON CONFLICT (student_id, run_id)
        DO UPDATE SET calculated_at = EXCLUDED.calculated_at, academic_score = EXCLUDED.academic_score,
        psychological_score = EXCLUDED.psychological_score, physical_score = EXCLUDED.physical_score,
        epr_score = EXCLUDED.epr_score, performance_band = EXCLUDED.performance_band,
        config_name = EXCLUDED.config_name, academic_weight = EXCLUDED.academic_weight,
        psychological_weight = EXCLUDED.psychological_weight, physical_weight = EXCLUDED.physical_weight,
        thriving_threshold = EXCLUDED.thriving_threshold, healthy_threshold = EXCLUDED.healthy_threshold,
        support_threshold = EXCLUDED.support_threshold`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("upsert epr result: %w", err)
	}
	return nil
}

// FindOnDate returns the student's result calculated on the given UTC
// calendar date, or nil when none exists. Used for same-day skip.
func (r *ResultRepository) FindOnDate(ctx context.Context, studentID string, date time.Time) (*models.EPRResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM epr_results
        WHERE student_id = $1 AND calculated_at >= $2 AND calculated_at < $3
        ORDER BY calculated_at DESC LIMIT 1`, resultColumns)
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	var result models.EPRResult
	if err := r.db.GetContext(ctx, &result, query, studentID, dayStart, dayEnd); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// ListByStudent returns the most recent results for one student.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.EPRResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	query := fmt.Sprintf(`SELECT %s FROM epr_results WHERE student_id = $1
        ORDER BY calculated_at DESC LIMIT $2`, resultColumns)
	var results []models.EPRResult
	if err := r.db.SelectContext(ctx, &results, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list results for student: %w", err)
	}
	return results, nil
}

// ListByRun returns every result produced within one run.
func (r *ResultRepository) ListByRun(ctx context.Context, runID string) ([]models.EPRResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM epr_results WHERE run_id = $1 ORDER BY student_id ASC`, resultColumns)
	var results []models.EPRResult
	if err := r.db.SelectContext(ctx, &results, query, runID); err != nil {
		return nil, fmt.Errorf("list results for run: %w", err)
	}
	return results, nil
}
