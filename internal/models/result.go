package models

import "time"

// PerformanceBand labels the discrete wellbeing classification of a score.
type PerformanceBand string

const (
	BandThriving         PerformanceBand = "thriving"
	BandHealthyProgress  PerformanceBand = "healthy_progress"
	BandNeedsSupport     PerformanceBand = "needs_support"
	BandAtRisk           PerformanceBand = "at_risk"
	BandInsufficientData PerformanceBand = "insufficient_data"
)

// EPRResult is one computed Edusight Prism Rating for a student within a
// run. History is append-only: rows are upserted on (student_id, run_id)
// for idempotence and never mutated afterwards.
type EPRResult struct {
	ID                 string          `db:"id" json:"id"`
	StudentID          string          `db:"student_id" json:"student_id"`
	RunID              string          `db:"run_id" json:"run_id"`
	CalculatedAt       time.Time       `db:"calculated_at" json:"calculated_at"`
	AcademicScore      *float64        `db:"academic_score" json:"academic_score,omitempty"`
	PsychologicalScore *float64        `db:"psychological_score" json:"psychological_score,omitempty"`
	PhysicalScore      *float64        `db:"physical_score" json:"physical_score,omitempty"`
	EPRScore           *float64        `db:"epr_score" json:"epr_score,omitempty"`
	PerformanceBand    PerformanceBand `db:"performance_band" json:"performance_band"`

	ConfigSnapshot
}
