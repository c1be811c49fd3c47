package models

import "time"

// AcademicAssessment stores raw academic metrics for one student on one
// assessment date. All raw fields are optional; the composite is null iff
// no raw input was present.
type AcademicAssessment struct {
	ID                     string     `db:"id" json:"id"`
	StudentID              string     `db:"student_id" json:"student_id"`
	AssessmentDate         time.Time  `db:"assessment_date" json:"assessment_date"`
	StandardizedTestScore  *float64   `db:"standardized_test_score" json:"standardized_test_score,omitempty"`
	GPAScore               *float64   `db:"gpa_score" json:"gpa_score,omitempty"`
	AttendanceScore        *float64   `db:"attendance_score" json:"attendance_score,omitempty"`
	EngagementScore        *float64   `db:"engagement_score" json:"engagement_score,omitempty"`
	LearningPaceScore      *float64   `db:"learning_pace_score" json:"learning_pace_score,omitempty"`
	HomeworkCompletionRate *float64   `db:"homework_completion_rate" json:"homework_completion_rate,omitempty"`
	ClassParticipation     *float64   `db:"class_participation" json:"class_participation,omitempty"`
	TeacherEvaluation      *float64   `db:"teacher_evaluation" json:"teacher_evaluation,omitempty"` // 1-10 scale
	CompositeScore         *float64   `db:"composite_academic_score" json:"composite_academic_score,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
}

// PsychologicalAssessment stores standardized questionnaire results. SDQ
// subscales are 0-10 integers whose first four sum to total difficulties
// (lower is better); DASS-21 subscales are 0-42 (lower is better); PERMA
// subscales are 1-10 decimals (higher is better).
type PsychologicalAssessment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	AssessmentDate time.Time `db:"assessment_date" json:"assessment_date"`

	EmotionalSymptoms *int `db:"emotional_symptoms" json:"emotional_symptoms,omitempty"`
	ConductProblems   *int `db:"conduct_problems" json:"conduct_problems,omitempty"`
	Hyperactivity     *int `db:"hyperactivity" json:"hyperactivity,omitempty"`
	PeerProblems      *int `db:"peer_problems" json:"peer_problems,omitempty"`
	Prosocial         *int `db:"prosocial" json:"prosocial,omitempty"`

	Depression *int `db:"depression" json:"depression,omitempty"`
	Anxiety    *int `db:"anxiety" json:"anxiety,omitempty"`
	Stress     *int `db:"stress" json:"stress,omitempty"`

	PositiveEmotion *float64 `db:"positive_emotion" json:"positive_emotion,omitempty"`
	Engagement      *float64 `db:"engagement" json:"engagement,omitempty"`
	Relationships   *float64 `db:"relationships" json:"relationships,omitempty"`
	Meaning         *float64 `db:"meaning" json:"meaning,omitempty"`
	Achievement     *float64 `db:"achievement" json:"achievement,omitempty"`

	SelfEsteemScore          *float64 `db:"self_esteem_score" json:"self_esteem_score,omitempty"`
	SocialSkillsScore        *float64 `db:"social_skills_score" json:"social_skills_score,omitempty"`
	EmotionalRegulationScore *float64 `db:"emotional_regulation_score" json:"emotional_regulation_score,omitempty"`

	CompositeScore *float64  `db:"composite_psychological_score" json:"composite_psychological_score,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// TotalDifficulties sums the four SDQ difficulty subscales (0-40, lower is
// better). It returns false unless all four subscales are present; a
// partial questionnaire never produces a difficulties total.
func (a *PsychologicalAssessment) TotalDifficulties() (int, bool) {
	if a.EmotionalSymptoms == nil || a.ConductProblems == nil || a.Hyperactivity == nil || a.PeerProblems == nil {
		return 0, false
	}
	return *a.EmotionalSymptoms + *a.ConductProblems + *a.Hyperactivity + *a.PeerProblems, true
}

// PhysicalAssessment stores anthropometric, fitness and activity indicators
// already normalized to the 0-100 scale.
type PhysicalAssessment struct {
	ID                 string     `db:"id" json:"id"`
	StudentID          string     `db:"student_id" json:"student_id"`
	AssessmentDate     time.Time  `db:"assessment_date" json:"assessment_date"`
	BMIScore           *float64   `db:"bmi_score" json:"bmi_score,omitempty"`
	CardioFitnessScore *float64   `db:"cardio_fitness_score" json:"cardio_fitness_score,omitempty"`
	StrengthScore      *float64   `db:"strength_score" json:"strength_score,omitempty"`
	FlexibilityScore   *float64   `db:"flexibility_score" json:"flexibility_score,omitempty"`
	ActivityLevelScore *float64   `db:"activity_level_score" json:"activity_level_score,omitempty"`
	SleepQualityScore  *float64   `db:"sleep_quality_score" json:"sleep_quality_score,omitempty"`
	NutritionScore     *float64   `db:"nutrition_score" json:"nutrition_score,omitempty"`
	CompositeScore     *float64   `db:"composite_physical_score" json:"composite_physical_score,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}
