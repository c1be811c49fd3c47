package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/internal/scoring"
	appErrors "github.com/edusight/prism/pkg/errors"
)

type assessmentStore interface {
	LatestAcademic(ctx context.Context, studentID string) (*models.AcademicAssessment, error)
	LatestPsychological(ctx context.Context, studentID string) (*models.PsychologicalAssessment, error)
	LatestPhysical(ctx context.Context, studentID string) (*models.PhysicalAssessment, error)
	StoreAcademicComposite(ctx context.Context, id string, composite *float64) error
	StorePsychologicalComposite(ctx context.Context, id string, composite *float64) error
	StorePhysicalComposite(ctx context.Context, id string, composite *float64) error
}

type resultStore interface {
	Upsert(ctx context.Context, result *models.EPRResult) error
	FindOnDate(ctx context.Context, studentID string, date time.Time) (*models.EPRResult, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.EPRResult, error)
}

// EPRService computes and persists Edusight Prism Ratings. The calculation
// itself is a pure function of record snapshots (see the scoring package);
// this service only loads inputs, invokes it and stores the outputs.
type EPRService struct {
	assessments assessmentStore
	results     resultStore
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewEPRService constructs an EPRService.
func NewEPRService(assessments assessmentStore, results resultStore, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *EPRService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EPRService{
		assessments: assessments,
		results:     results,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Compute calculates the rating for one student under the given
// configuration. Unless force is set, an existing result from the same UTC
// calendar date is reused and the second return value reports the skip.
func (s *EPRService) Compute(ctx context.Context, studentID, runID string, cfg *models.EPRConfig, runDate time.Time, force bool) (*models.EPRResult, bool, error) {
	if !force {
		existing, err := s.results.FindOnDate(ctx, studentID, runDate)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check existing result")
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	scores, err := s.composites(ctx, studentID)
	if err != nil {
		return nil, false, err
	}

	eprScore, band := scoring.Combine(scores, cfg.Snapshot())
	if band == models.BandInsufficientData {
		// Missing data is information, not an error.
		s.logger.Info("no assessment data for student", zap.String("student_id", studentID))
	}

	result := &models.EPRResult{
		StudentID:          studentID,
		RunID:              runID,
		CalculatedAt:       time.Now().UTC(),
		AcademicScore:      scores.Academic,
		PsychologicalScore: scores.Psychological,
		PhysicalScore:      scores.Physical,
		EPRScore:           eprScore,
		PerformanceBand:    band,
		ConfigSnapshot:     cfg.Snapshot(),
	}
	if err := s.results.Upsert(ctx, result); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to persist result")
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, latestResultKey(studentID), result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache result", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	return result, false, nil
}

// Latest returns the most recent result for a student, served from cache
// when possible.
func (s *EPRService) Latest(ctx context.Context, studentID string) (*models.EPRResult, error) {
	if s.cache.Enabled() {
		var cached models.EPRResult
		if hit, err := s.cache.Get(ctx, latestResultKey(studentID), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	results, err := s.results.ListByStudent(ctx, studentID, 1)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load latest result")
	}
	if len(results) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no result for student %s", studentID))
	}
	return &results[0], nil
}

// History returns recent results for a student, newest first.
func (s *EPRService) History(ctx context.Context, studentID string, limit int) ([]models.EPRResult, error) {
	results, err := s.results.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load result history")
	}
	return results, nil
}

// composites loads the latest assessment per domain and computes the three
// composite scores. The derived composite is written back onto its
// assessment row so reads see the latest computed value, but persistence
// failures there only log: the row copy is a convenience, not the source
// of truth.
func (s *EPRService) composites(ctx context.Context, studentID string) (scoring.DomainScores, error) {
	var scores scoring.DomainScores

	academic, err := s.assessments.LatestAcademic(ctx, studentID)
	if err != nil {
		return scores, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load academic assessment")
	}
	if academic != nil {
		composite, err := scoring.AcademicComposite(academic)
		if err != nil {
			return scores, err
		}
		scores.Academic = composite
		if err := s.assessments.StoreAcademicComposite(ctx, academic.ID, composite); err != nil {
			s.logger.Warn("failed to store academic composite", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	psychological, err := s.assessments.LatestPsychological(ctx, studentID)
	if err != nil {
		return scores, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load psychological assessment")
	}
	if psychological != nil {
		composite, err := scoring.PsychologicalComposite(psychological)
		if err != nil {
			return scores, err
		}
		scores.Psychological = composite
		if err := s.assessments.StorePsychologicalComposite(ctx, psychological.ID, composite); err != nil {
			s.logger.Warn("failed to store psychological composite", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	physical, err := s.assessments.LatestPhysical(ctx, studentID)
	if err != nil {
		return scores, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load physical assessment")
	}
	if physical != nil {
		composite, err := scoring.PhysicalComposite(physical)
		if err != nil {
			return scores, err
		}
		scores.Physical = composite
		if err := s.assessments.StorePhysicalComposite(ctx, physical.ID, composite); err != nil {
			s.logger.Warn("failed to store physical composite", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	return scores, nil
}

func latestResultKey(studentID string) string {
	return "epr:latest:" + studentID
}
