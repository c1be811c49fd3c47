package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusight/prism/internal/models"
	appErrors "github.com/edusight/prism/pkg/errors"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestAcademicCompositeAveragesNormalizedMetrics(t *testing.T) {
	a := &models.AcademicAssessment{
		StandardizedTestScore: fptr(80),
		GPAScore:              fptr(90),
		TeacherEvaluation:     fptr(7), // 1-10 scale, rescaled to 70
	}

	composite, err := AcademicComposite(a)
	require.NoError(t, err)
	require.NotNil(t, composite)
	assert.InDelta(t, 80.0, *composite, 1e-9)
}

func TestAcademicCompositeNilWhenEmpty(t *testing.T) {
	composite, err := AcademicComposite(&models.AcademicAssessment{})
	require.NoError(t, err)
	assert.Nil(t, composite)
}

func TestAcademicCompositeRejectsOutOfRange(t *testing.T) {
	cases := map[string]*models.AcademicAssessment{
		"negative metric":        {AttendanceScore: fptr(-1)},
		"metric above 100":       {GPAScore: fptr(100.5)},
		"teacher eval below one": {TeacherEvaluation: fptr(0.5)},
		"teacher eval above ten": {TeacherEvaluation: fptr(11)},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			composite, err := AcademicComposite(a)
			assert.Nil(t, composite)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, appErrors.ErrMetricOutOfRange.Code, appErr.Code)
		})
	}
}

func TestPsychologicalCompositeSDQOnly(t *testing.T) {
	// Total difficulties 3+2+4+1 = 10 normalizes to 75.
	a := &models.PsychologicalAssessment{
		EmotionalSymptoms: iptr(3),
		ConductProblems:   iptr(2),
		Hyperactivity:     iptr(4),
		PeerProblems:      iptr(1),
	}

	composite, err := PsychologicalComposite(a)
	require.NoError(t, err)
	require.NotNil(t, composite)
	assert.InDelta(t, 75.0, *composite, 1e-9)
}

func TestPsychologicalCompositeDASSNormalization(t *testing.T) {
	a := &models.PsychologicalAssessment{Depression: iptr(21)}

	composite, err := PsychologicalComposite(a)
	require.NoError(t, err)
	require.NotNil(t, composite)
	assert.InDelta(t, 50.0, *composite, 1e-9)
}

func TestPsychologicalCompositeWorstDASSFloorsAtZero(t *testing.T) {
	a := &models.PsychologicalAssessment{Stress: iptr(42)}

	composite, err := PsychologicalComposite(a)
	require.NoError(t, err)
	require.NotNil(t, composite)
	assert.InDelta(t, 0.0, *composite, 1e-9)
}

func TestPsychologicalCompositePartialSDQHasNoDifficultiesTotal(t *testing.T) {
	// Three of four difficulty subscales never form a total; prosocial still
	// contributes on its own.
	a := &models.PsychologicalAssessment{
		EmotionalSymptoms: iptr(3),
		ConductProblems:   iptr(2),
		Hyperactivity:     iptr(4),
		Prosocial:         iptr(8),
	}

	composite, err := PsychologicalComposite(a)
	require.NoError(t, err)
	require.NotNil(t, composite)
	assert.InDelta(t, 80.0, *composite, 1e-9)
}

func TestPsychologicalCompositeMixedInstruments(t *testing.T) {
	// SDQ total 10 -> 75, prosocial 8 -> 80, depression 0 -> 100,
	// positive_emotion 8 -> 80, self_esteem 65 -> 65. Mean = 80.
	a := &models.PsychologicalAssessment{
		EmotionalSymptoms: iptr(3),
		ConductProblems:   iptr(2),
		Hyperactivity:     iptr(4),
		PeerProblems:      iptr(1),
		Prosocial:         iptr(8),
		Depression:        iptr(0),
		PositiveEmotion:   fptr(8),
		SelfEsteemScore:   fptr(65),
	}

	composite, err := PsychologicalComposite(a)
	require.NoError(t, err)
	require.NotNil(t, composite)
	assert.InDelta(t, 80.0, *composite, 1e-9)
}

func TestPsychologicalCompositeRejectsOutOfRange(t *testing.T) {
	cases := map[string]*models.PsychologicalAssessment{
		"sdq above ten":    {Hyperactivity: iptr(11)},
		"negative sdq":     {PeerProblems: iptr(-2)},
		"dass above max":   {Anxiety: iptr(43)},
		"perma below one":  {Meaning: fptr(0.9)},
		"direct above 100": {SocialSkillsScore: fptr(101)},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			composite, err := PsychologicalComposite(a)
			assert.Nil(t, composite)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
		})
	}
}

func TestPhysicalComposite(t *testing.T) {
	a := &models.PhysicalAssessment{
		BMIScore:           fptr(70),
		CardioFitnessScore: fptr(80),
		SleepQualityScore:  fptr(90),
	}

	composite, err := PhysicalComposite(a)
	require.NoError(t, err)
	require.NotNil(t, composite)
	assert.InDelta(t, 80.0, *composite, 1e-9)

	empty, err := PhysicalComposite(&models.PhysicalAssessment{})
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestCompositeIsInputOrderIndependent(t *testing.T) {
	a := &models.PsychologicalAssessment{
		Depression: iptr(10),
		Anxiety:    iptr(20),
		Stress:     iptr(30),
	}
	first, err := PsychologicalComposite(a)
	require.NoError(t, err)
	second, err := PsychologicalComposite(a)
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
}
