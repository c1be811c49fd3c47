package scoring

import (
	"github.com/edusight/prism/internal/models"
)

// PhysicalComposite computes the 0-100 physical composite. All physical
// indicators arrive pre-normalized to 0-100, so only range validation and
// averaging apply.
func PhysicalComposite(a *models.PhysicalAssessment) (*float64, error) {
	acc := &accumulator{}

	metrics := []struct {
		field string
		value *float64
	}{
		{"bmi_score", a.BMIScore},
		{"cardio_fitness_score", a.CardioFitnessScore},
		{"strength_score", a.StrengthScore},
		{"flexibility_score", a.FlexibilityScore},
		{"activity_level_score", a.ActivityLevelScore},
		{"sleep_quality_score", a.SleepQualityScore},
		{"nutrition_score", a.NutritionScore},
	}
	for _, m := range metrics {
		if m.value == nil {
			continue
		}
		if err := checkRange(m.field, *m.value, 0, 100); err != nil {
			return nil, err
		}
		acc.add(*m.value)
	}

	return acc.mean(), nil
}
