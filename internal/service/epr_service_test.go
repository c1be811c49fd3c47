package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusight/prism/internal/models"
	appErrors "github.com/edusight/prism/pkg/errors"
)

type fakeAssessmentStore struct {
	academic      *models.AcademicAssessment
	psychological *models.PsychologicalAssessment
	physical      *models.PhysicalAssessment
	loadErr       error
	stored        map[string]*float64
}

func (f *fakeAssessmentStore) LatestAcademic(ctx context.Context, studentID string) (*models.AcademicAssessment, error) {
	return f.academic, f.loadErr
}

func (f *fakeAssessmentStore) LatestPsychological(ctx context.Context, studentID string) (*models.PsychologicalAssessment, error) {
	return f.psychological, f.loadErr
}

func (f *fakeAssessmentStore) LatestPhysical(ctx context.Context, studentID string) (*models.PhysicalAssessment, error) {
	return f.physical, f.loadErr
}

func (f *fakeAssessmentStore) StoreAcademicComposite(ctx context.Context, id string, composite *float64) error {
	if f.stored == nil {
		f.stored = make(map[string]*float64)
	}
	f.stored["academic:"+id] = composite
	return nil
}

func (f *fakeAssessmentStore) StorePsychologicalComposite(ctx context.Context, id string, composite *float64) error {
	if f.stored == nil {
		f.stored = make(map[string]*float64)
	}
	f.stored["psychological:"+id] = composite
	return nil
}

func (f *fakeAssessmentStore) StorePhysicalComposite(ctx context.Context, id string, composite *float64) error {
	if f.stored == nil {
		f.stored = make(map[string]*float64)
	}
	f.stored["physical:"+id] = composite
	return nil
}

type fakeResultStore struct {
	existing  *models.EPRResult
	upserted  []*models.EPRResult
	upsertErr error
	history   []models.EPRResult
}

func (f *fakeResultStore) Upsert(ctx context.Context, result *models.EPRResult) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, result)
	return nil
}

func (f *fakeResultStore) FindOnDate(ctx context.Context, studentID string, date time.Time) (*models.EPRResult, error) {
	return f.existing, nil
}

func (f *fakeResultStore) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.EPRResult, error) {
	if limit > 0 && limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func testConfig() *models.EPRConfig {
	return &models.EPRConfig{
		Name:                "default",
		AgeGroup:            "secondary",
		IsActive:            true,
		AcademicWeight:      40,
		PsychologicalWeight: 30,
		PhysicalWeight:      30,
		ThrivingThreshold:   85,
		HealthyThreshold:    70,
		SupportThreshold:    50,
	}
}

func fullAcademic(score float64) *models.AcademicAssessment {
	return &models.AcademicAssessment{
		ID:                    "aca-1",
		StudentID:             "stu-1",
		StandardizedTestScore: &score,
	}
}

func TestEPRServiceComputePersistsResult(t *testing.T) {
	assessments := &fakeAssessmentStore{academic: fullAcademic(90)}
	results := &fakeResultStore{}
	svc := NewEPRService(assessments, results, nil, time.Hour, nil)

	result, skipped, err := svc.Compute(context.Background(), "stu-1", "run-1", testConfig(), time.Now().UTC(), false)
	require.NoError(t, err)
	assert.False(t, skipped)
	require.Len(t, results.upserted, 1)
	require.NotNil(t, result.EPRScore)
	assert.Equal(t, 90.0, *result.EPRScore)
	assert.Equal(t, models.BandThriving, result.PerformanceBand)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "default", result.ConfigSnapshot.ConfigName)
	assert.NotNil(t, assessments.stored["academic:aca-1"])
}

func TestEPRServiceComputeSkipsSameDayResult(t *testing.T) {
	existing := &models.EPRResult{ID: "res-1", StudentID: "stu-1"}
	results := &fakeResultStore{existing: existing}
	svc := NewEPRService(&fakeAssessmentStore{}, results, nil, time.Hour, nil)

	result, skipped, err := svc.Compute(context.Background(), "stu-1", "run-2", testConfig(), time.Now().UTC(), false)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, existing, result)
	assert.Empty(t, results.upserted)
}

func TestEPRServiceComputeForceRecalculates(t *testing.T) {
	existing := &models.EPRResult{ID: "res-1", StudentID: "stu-1"}
	results := &fakeResultStore{existing: existing}
	svc := NewEPRService(&fakeAssessmentStore{academic: fullAcademic(80)}, results, nil, time.Hour, nil)

	result, skipped, err := svc.Compute(context.Background(), "stu-1", "run-2", testConfig(), time.Now().UTC(), true)
	require.NoError(t, err)
	assert.False(t, skipped)
	require.Len(t, results.upserted, 1)
	assert.NotEqual(t, existing.ID, result.ID)
}

func TestEPRServiceComputeNoDataYieldsInsufficientBand(t *testing.T) {
	results := &fakeResultStore{}
	svc := NewEPRService(&fakeAssessmentStore{}, results, nil, time.Hour, nil)

	result, _, err := svc.Compute(context.Background(), "stu-1", "run-1", testConfig(), time.Now().UTC(), false)
	require.NoError(t, err)
	assert.Nil(t, result.EPRScore)
	assert.Equal(t, models.BandInsufficientData, result.PerformanceBand)
	require.Len(t, results.upserted, 1)
}

func TestEPRServiceComputeRejectsOutOfRangeMetric(t *testing.T) {
	bad := 120.0
	assessments := &fakeAssessmentStore{academic: &models.AcademicAssessment{
		ID: "aca-1", StudentID: "stu-1", GPAScore: &bad,
	}}
	results := &fakeResultStore{}
	svc := NewEPRService(assessments, results, nil, time.Hour, nil)

	_, _, err := svc.Compute(context.Background(), "stu-1", "run-1", testConfig(), time.Now().UTC(), false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMetricOutOfRange.Code, appErrors.FromError(err).Code)
	assert.Empty(t, results.upserted)
}

func TestEPRServiceComputeWrapsPersistenceFailure(t *testing.T) {
	results := &fakeResultStore{upsertErr: errors.New("connection reset")}
	svc := NewEPRService(&fakeAssessmentStore{academic: fullAcademic(75)}, results, nil, time.Hour, nil)

	_, _, err := svc.Compute(context.Background(), "stu-1", "run-1", testConfig(), time.Now().UTC(), false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErrors.FromError(err).Code)
}

func TestEPRServiceLatestFallsBackToStore(t *testing.T) {
	score := 72.0
	results := &fakeResultStore{history: []models.EPRResult{{ID: "res-9", StudentID: "stu-1", EPRScore: &score}}}
	svc := NewEPRService(&fakeAssessmentStore{}, results, nil, time.Hour, nil)

	result, err := svc.Latest(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "res-9", result.ID)
}

func TestEPRServiceLatestNotFound(t *testing.T) {
	svc := NewEPRService(&fakeAssessmentStore{}, &fakeResultStore{}, nil, time.Hour, nil)

	_, err := svc.Latest(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
