package scoring

import (
	"github.com/edusight/prism/internal/models"
)

// AcademicComposite computes the 0-100 academic composite for one
// assessment record. It returns nil when no raw metric is present and an
// error when any present metric violates its declared range.
func AcademicComposite(a *models.AcademicAssessment) (*float64, error) {
	acc := &accumulator{}

	direct := []struct {
		field string
		value *float64
	}{
		{"standardized_test_score", a.StandardizedTestScore},
		{"gpa_score", a.GPAScore},
		{"attendance_score", a.AttendanceScore},
		{"engagement_score", a.EngagementScore},
		{"learning_pace_score", a.LearningPaceScore},
		{"homework_completion_rate", a.HomeworkCompletionRate},
		{"class_participation", a.ClassParticipation},
	}
	for _, m := range direct {
		if m.value == nil {
			continue
		}
		if err := checkRange(m.field, *m.value, 0, 100); err != nil {
			return nil, err
		}
		acc.add(*m.value)
	}

	if a.TeacherEvaluation != nil {
		if err := checkRange("teacher_evaluation", *a.TeacherEvaluation, 1, 10); err != nil {
			return nil, err
		}
		acc.add(scaleTen(*a.TeacherEvaluation))
	}

	return acc.mean(), nil
}
