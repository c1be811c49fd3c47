package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/internal/repository"
	"github.com/edusight/prism/internal/scoring"
	appErrors "github.com/edusight/prism/pkg/errors"
)

type studentLister interface {
	ListActive(ctx context.Context, afterID string, limit int) ([]models.Student, error)
	CountActive(ctx context.Context) (int, error)
}

type batchStore interface {
	Create(ctx context.Context, run *models.BatchRun) error
	Finish(ctx context.Context, run *models.BatchRun) error
	FindByID(ctx context.Context, id string) (*models.BatchRun, error)
	List(ctx context.Context, limit int) ([]models.BatchRun, error)
}

type configStore interface {
	FindByName(ctx context.Context, name string) (*models.EPRConfig, error)
	FindActive(ctx context.Context, ageGroup string) (*models.EPRConfig, error)
}

type ratingCalculator interface {
	Compute(ctx context.Context, studentID, runID string, cfg *models.EPRConfig, runDate time.Time, force bool) (*models.EPRResult, bool, error)
}

type rollupStore interface {
	UpsertRollup(ctx context.Context, rollup *repository.WellbeingRollup) error
}

// BatchOptions parameterises one batch run.
type BatchOptions struct {
	RunDate    time.Time
	ConfigName string
	Force      bool
	BatchSize  int
}

// BatchService drives the daily recomputation over the active roster. A
// per-student failure is recorded and the run continues; only a missing
// configuration or an unreachable store aborts the batch.
type BatchService struct {
	students   studentLister
	batches    batchStore
	configs    configStore
	calculator ratingCalculator
	rollups    rollupStore
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewBatchService constructs a BatchService. The rollup store may be nil
// when no analytics database is configured.
func NewBatchService(students studentLister, batches batchStore, configs configStore,
	calculator ratingCalculator, rollups rollupStore, metrics *MetricsService, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		students:   students,
		batches:    batches,
		configs:    configs,
		calculator: calculator,
		rollups:    rollups,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run executes one batch over all active students and returns the run
// summary together with the per-student outcomes handed to downstream
// classification.
func (s *BatchService) Run(ctx context.Context, opts BatchOptions) (*models.BatchRun, []models.StudentOutcome, error) {
	if opts.RunDate.IsZero() {
		opts.RunDate = time.Now().UTC()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}

	resolver := newConfigResolver(s.configs, opts.ConfigName)

	run := &models.BatchRun{
		RunDate:    opts.RunDate,
		ConfigName: resolver.label(),
	}
	if err := s.batches.Create(ctx, run); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open batch run")
	}

	total, err := s.students.CountActive(ctx)
	if err != nil {
		return run, nil, s.fail(ctx, run, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to count students"))
	}
	s.logger.Info("batch run started",
		zap.String("run_id", run.ID),
		zap.Int("students", total),
		zap.Bool("force", opts.Force))

	outcomes := make([]models.StudentOutcome, 0, total)
	cursor := ""
	for {
		students, err := s.students.ListActive(ctx, cursor, opts.BatchSize)
		if err != nil {
			return run, nil, s.fail(ctx, run, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list students"))
		}
		if len(students) == 0 {
			break
		}
		cursor = students[len(students)-1].ID

		for _, student := range students {
			if err := ctx.Err(); err != nil {
				return run, nil, s.fail(ctx, run, err)
			}

			cfg, err := resolver.resolve(ctx, student)
			if err != nil {
				return run, nil, s.fail(ctx, run, err)
			}

			result, skipped, err := s.calculator.Compute(ctx, student.ID, run.ID, cfg, opts.RunDate, opts.Force)
			if err != nil {
				kind := appErrors.FromError(err)
				run.Errors = append(run.Errors, models.BatchError{
					StudentID: student.ID,
					Kind:      kind.Code,
					Message:   kind.Message,
				})
				s.metrics.CountStudent("failed")
				s.logger.Warn("student calculation failed",
					zap.String("run_id", run.ID),
					zap.String("student_id", student.ID),
					zap.String("kind", kind.Code),
					zap.Error(err))
				continue
			}

			run.Processed++
			if skipped {
				run.Skipped++
				s.metrics.CountStudent("skipped")
			} else {
				s.metrics.CountStudent("calculated")
			}
			addBand(&run.BandCounts, result.PerformanceBand)
			outcomes = append(outcomes, models.StudentOutcome{
				StudentID:          student.ID,
				EPRScore:           result.EPRScore,
				PerformanceBand:    result.PerformanceBand,
				AcademicScore:      result.AcademicScore,
				PsychologicalScore: result.PsychologicalScore,
				PhysicalScore:      result.PhysicalScore,
			})
		}
	}

	run.Status = models.BatchRunStatusCompleted
	if err := s.batches.Finish(ctx, run); err != nil {
		return run, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to finish batch run")
	}

	s.metrics.SetBandCounts(run.BandCounts)
	s.publishRollup(ctx, run)

	s.logger.Info("batch run completed",
		zap.String("run_id", run.ID),
		zap.Int("processed", run.Processed),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", len(run.Errors)))
	return run, outcomes, nil
}

// Get returns one batch run by id.
func (s *BatchService) Get(ctx context.Context, id string) (*models.BatchRun, error) {
	run, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("batch run %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load batch run")
	}
	return run, nil
}

// List returns recent batch runs.
func (s *BatchService) List(ctx context.Context, limit int) ([]models.BatchRun, error) {
	runs, err := s.batches.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list batch runs")
	}
	return runs, nil
}

// fail marks the run failed, best-effort, and passes the fatal error through.
func (s *BatchService) fail(ctx context.Context, run *models.BatchRun, cause error) error {
	run.Status = models.BatchRunStatusFailed
	if err := s.batches.Finish(ctx, run); err != nil {
		s.logger.Error("failed to record batch failure", zap.String("run_id", run.ID), zap.Error(err))
	}
	return cause
}

// publishRollup mirrors the band distribution into the analytics store.
// Rollups are recomputable, so a write failure only logs.
func (s *BatchService) publishRollup(ctx context.Context, run *models.BatchRun) {
	if s.rollups == nil {
		return
	}
	rollup := &repository.WellbeingRollup{
		RunDate:    run.RunDate,
		ConfigName: run.ConfigName,
		Processed:  run.Processed,
		BandCounts: run.BandCounts,
	}
	if err := s.rollups.UpsertRollup(ctx, rollup); err != nil {
		s.logger.Warn("failed to publish wellbeing rollup", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func addBand(counts *models.BandCounts, band models.PerformanceBand) {
	switch band {
	case models.BandThriving:
		counts.Thriving++
	case models.BandHealthyProgress:
		counts.HealthyProgress++
	case models.BandNeedsSupport:
		counts.NeedsSupport++
	case models.BandAtRisk:
		counts.AtRisk++
	default:
		counts.InsufficientData++
	}
}

// configResolver picks the configuration per student. When a run pins a
// configuration by name that one applies to everyone; otherwise the active
// configuration for the student's age group is used. Resolved configs are
// validated once and memoised for the duration of the run.
type configResolver struct {
	configs configStore
	pinned  string
	cache   map[string]*models.EPRConfig
}

func newConfigResolver(configs configStore, pinned string) *configResolver {
	return &configResolver{configs: configs, pinned: pinned, cache: make(map[string]*models.EPRConfig)}
}

func (r *configResolver) label() string {
	if r.pinned != "" {
		return r.pinned
	}
	return "auto"
}

func (r *configResolver) resolve(ctx context.Context, student models.Student) (*models.EPRConfig, error) {
	key := r.pinned
	if key == "" {
		key = "age:" + student.AgeGroup
	}
	if cfg, ok := r.cache[key]; ok {
		return cfg, nil
	}

	var (
		cfg *models.EPRConfig
		err error
	)
	if r.pinned != "" {
		cfg, err = r.configs.FindByName(ctx, r.pinned)
	} else {
		cfg, err = r.configs.FindActive(ctx, student.AgeGroup)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no configuration for %s", key))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load configuration")
	}
	if err := scoring.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	r.cache[key] = cfg
	return cfg, nil
}
