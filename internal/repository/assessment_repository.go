package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/edusight/prism/internal/models"
)

// AssessmentRepository reads the latest assessment record per student and
// domain. Records arrive through an upstream submission path; this service
// never writes raw assessments, only the derived composite columns.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs an AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Latest selection: strictly greatest assessment_date, ties broken by
// greatest creation timestamp. A nil record with nil error means the
// student has no assessment in that domain.

// LatestAcademic returns the most recent academic assessment for a student.
func (r *AssessmentRepository) LatestAcademic(ctx context.Context, studentID string) (*models.AcademicAssessment, error) {
	const query = `SELECT id, student_id, assessment_date, standardized_test_score, gpa_score, attendance_score,
        engagement_score, learning_pace_score, homework_completion_rate, class_participation, teacher_evaluation,
        composite_academic_score, created_at
        FROM academic_assessments WHERE student_id = $1
        ORDER BY assessment_date DESC, created_at DESC LIMIT 1`
	var a models.AcademicAssessment
	if err := r.db.GetContext(ctx, &a, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// LatestPsychological returns the most recent psychological assessment.
func (r *AssessmentRepository) LatestPsychological(ctx context.Context, studentID string) (*models.PsychologicalAssessment, error) {
	const query = `SELECT id, student_id, assessment_date, emotional_symptoms, conduct_problems, hyperactivity,
        peer_problems, prosocial, depression, anxiety, stress, positive_emotion, engagement, relationships,
        meaning, achievement, self_esteem_score, social_skills_score, emotional_regulation_score,
        composite_psychological_score, created_at
        FROM psychological_assessments WHERE student_id = $1
        ORDER BY assessment_date DESC, created_at DESC LIMIT 1`
	var a models.PsychologicalAssessment
	if err := r.db.GetContext(ctx, &a, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// LatestPhysical returns the most recent physical assessment.
func (r *AssessmentRepository) LatestPhysical(ctx context.Context, studentID string) (*models.PhysicalAssessment, error) {
	const query = `SELECT id, student_id, assessment_date, bmi_score, cardio_fitness_score, strength_score,
        flexibility_score, activity_level_score, sleep_quality_score, nutrition_score,
        composite_physical_score, created_at
        FROM physical_assessments WHERE student_id = $1
        ORDER BY assessment_date DESC, created_at DESC LIMIT 1`
	var a models.PhysicalAssessment
	if err := r.db.GetContext(ctx, &a, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// StoreAcademicComposite persists the derived composite for a record.
func (r *AssessmentRepository) StoreAcademicComposite(ctx context.Context, id string, composite *float64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE academic_assessments SET composite_academic_score = $2 WHERE id = $1", id, composite)
	return err
}

// StorePsychologicalComposite persists the derived composite for a record.
func (r *AssessmentRepository) StorePsychologicalComposite(ctx context.Context, id string, composite *float64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE psychological_assessments SET composite_psychological_score = $2 WHERE id = $1", id, composite)
	return err
}

// StorePhysicalComposite persists the derived composite for a record.
func (r *AssessmentRepository) StorePhysicalComposite(ctx context.Context, id string, composite *float64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE physical_assessments SET composite_physical_score = $2 WHERE id = $1", id, composite)
	return err
}
