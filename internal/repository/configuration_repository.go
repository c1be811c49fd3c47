package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusight/prism/internal/models"
)

const configColumns = `id, name, age_group, is_active, academic_weight, psychological_weight, physical_weight,
        thriving_threshold, healthy_threshold, support_threshold, created_at, updated_at`

// ConfigurationRepository persists EPR weighting configurations.
type ConfigurationRepository struct {
	db *sqlx.DB
}

// NewConfigurationRepository constructs the repository.
func NewConfigurationRepository(db *sqlx.DB) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

// FindByName fetches a configuration by its unique name.
func (r *ConfigurationRepository) FindByName(ctx context.Context, name string) (*models.EPRConfig, error) {
	query := fmt.Sprintf("SELECT %s FROM epr_configurations WHERE name = $1", configColumns)
	var cfg models.EPRConfig
	if err := r.db.GetContext(ctx, &cfg, query, name); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindActive fetches the active configuration for an age group.
func (r *ConfigurationRepository) FindActive(ctx context.Context, ageGroup string) (*models.EPRConfig, error) {
	query := fmt.Sprintf("SELECT %s FROM epr_configurations WHERE age_group = $1 AND is_active = true", configColumns)
	var cfg models.EPRConfig
	if err := r.db.GetContext(ctx, &cfg, query, ageGroup); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List returns all configurations ordered by age group and name.
func (r *ConfigurationRepository) List(ctx context.Context) ([]models.EPRConfig, error) {
	query := fmt.Sprintf("SELECT %s FROM epr_configurations ORDER BY age_group ASC, name ASC", configColumns)
	var configs []models.EPRConfig
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list configurations: %w", err)
	}
	return configs, nil
}

// Create inserts a new configuration.
func (r *ConfigurationRepository) Create(ctx context.Context, cfg *models.EPRConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	const query = `INSERT INTO epr_configurations (id, name, age_group, is_active, academic_weight, psychological_weight, physical_weight,
        thriving_threshold, healthy_threshold, support_threshold, created_at, updated_at)
        VALUES (:id, :name, :age_group, :is_active, :academic_weight, :psychological_weight, :physical_weight,
        :thriving_threshold, :healthy_threshold, :support_threshold, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("create configuration: %w", err)
	}
	return nil
}

// Activate makes the named configuration the single active one for its age
// group. Deactivation of siblings and activation happen in one transaction
// so the one-active-per-age-group invariant holds at every commit point.
func (r *ConfigurationRepository) Activate(ctx context.Context, name string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate tx: %w", err)
	}

	var ageGroup string
	if err := tx.GetContext(ctx, &ageGroup, "SELECT age_group FROM epr_configurations WHERE name = $1", name); err != nil {
		_ = tx.Rollback()
		return err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE epr_configurations SET is_active = false, updated_at = $2 WHERE age_group = $1 AND is_active = true",
		ageGroup, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("deactivate siblings: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE epr_configurations SET is_active = true, updated_at = $2 WHERE name = $1",
		name, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("activate configuration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate tx: %w", err)
	}
	return nil
}
