package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusight/prism/internal/dto"
	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/internal/scoring"
	appErrors "github.com/edusight/prism/pkg/errors"
)

type configurationRepo interface {
	FindByName(ctx context.Context, name string) (*models.EPRConfig, error)
	FindActive(ctx context.Context, ageGroup string) (*models.EPRConfig, error)
	List(ctx context.Context) ([]models.EPRConfig, error)
	Create(ctx context.Context, cfg *models.EPRConfig) error
	Activate(ctx context.Context, name string) error
}

// ConfigurationService manages weighting configurations. Configurations are
// immutable after creation; tuning means creating a new one and activating
// it for its age group.
type ConfigurationService struct {
	repo     configurationRepo
	validate *validator.Validate
	logger   *zap.Logger
}

// NewConfigurationService constructs a ConfigurationService.
func NewConfigurationService(repo configurationRepo, validate *validator.Validate, logger *zap.Logger) *ConfigurationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigurationService{repo: repo, validate: validate, logger: logger}
}

// Create registers a new configuration and optionally activates it.
func (s *ConfigurationService) Create(ctx context.Context, req *dto.CreateConfigurationRequest) (*models.EPRConfig, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid configuration payload")
	}

	cfg := &models.EPRConfig{
		Name:                req.Name,
		AgeGroup:            req.AgeGroup,
		AcademicWeight:      req.AcademicWeight,
		PsychologicalWeight: req.PsychologicalWeight,
		PhysicalWeight:      req.PhysicalWeight,
		ThrivingThreshold:   req.ThrivingThreshold,
		HealthyThreshold:    req.HealthyThreshold,
		SupportThreshold:    req.SupportThreshold,
	}
	if err := scoring.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByName(ctx, cfg.Name); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("configuration %s already exists", cfg.Name))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check configuration name")
	}

	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create configuration")
	}
	s.logger.Info("configuration created",
		zap.String("name", cfg.Name),
		zap.String("age_group", cfg.AgeGroup))

	if req.Activate {
		if err := s.Activate(ctx, cfg.Name); err != nil {
			return nil, err
		}
		cfg.IsActive = true
	}
	return cfg, nil
}

// Activate makes the named configuration the active one for its age group.
func (s *ConfigurationService) Activate(ctx context.Context, name string) error {
	if err := s.repo.Activate(ctx, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("configuration %s not found", name))
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to activate configuration")
	}
	s.logger.Info("configuration activated", zap.String("name", name))
	return nil
}

// Get fetches one configuration by name.
func (s *ConfigurationService) Get(ctx context.Context, name string) (*models.EPRConfig, error) {
	cfg, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("configuration %s not found", name))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load configuration")
	}
	return cfg, nil
}

// List returns all configurations.
func (s *ConfigurationService) List(ctx context.Context) ([]models.EPRConfig, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list configurations")
	}
	return configs, nil
}
