package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edusight/prism/internal/models"
)

// WellbeingRollup is the per-day band distribution stored in the analytics
// store after each completed run.
type WellbeingRollup struct {
	RunDate    time.Time `db:"run_date" json:"run_date"`
	ConfigName string    `db:"config_name" json:"config_name"`
	Processed  int       `db:"processed" json:"processed"`
	models.BandCounts
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AnalyticsRepository writes derived rollups into the analytics store.
// Rollups are recomputable from the default store; the analytics database
// is read-write isolated and never joined against primary tables.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs an AnalyticsRepository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// UpsertRollup stores the band distribution for a run date.
func (r *AnalyticsRepository) UpsertRollup(ctx context.Context, rollup *WellbeingRollup) error {
	rollup.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO wellbeing_rollups (run_date, config_name, processed, thriving_count, healthy_count,
        support_count, at_risk_count, insufficient_count, updated_at)
        VALUES (:run_date, :config_name, :processed, :thriving_count, :healthy_count,
        :support_count, :at_risk_count, :insufficient_count, :updated_at)
        ON CONFLICT (run_date)
        DO UPDATE SET config_name = EXCLUDED.config_name, processed = EXCLUDED.processed,
        thriving_count = EXCLUDED.thriving_count, healthy_count = EXCLUDED.healthy_count,
        support_count = EXCLUDED.support_count, at_risk_count = EXCLUDED.at_risk_count,
        insufficient_count = EXCLUDED.insufficient_count, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rollup); err != nil {
		return fmt.Errorf("upsert wellbeing rollup: %w", err)
	}
	return nil
}

// ListRollups returns recent rollups, newest first.
func (r *AnalyticsRepository) ListRollups(ctx context.Context, limit int) ([]WellbeingRollup, error) {
	if limit <= 0 || limit > 366 {
		limit = 30
	}
	const query = `SELECT run_date, config_name, processed, thriving_count, healthy_count, support_count,
        at_risk_count, insufficient_count, updated_at
        FROM wellbeing_rollups ORDER BY run_date DESC LIMIT $1`
	var rollups []WellbeingRollup
	if err := r.db.SelectContext(ctx, &rollups, query, limit); err != nil {
		return nil, fmt.Errorf("list wellbeing rollups: %w", err)
	}
	return rollups, nil
}
