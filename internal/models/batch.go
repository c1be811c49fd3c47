package models

import "time"

// BatchRunStatus tracks the lifecycle of one pipeline execution.
type BatchRunStatus string

const (
	BatchRunStatusRunning   BatchRunStatus = "RUNNING"
	BatchRunStatusCompleted BatchRunStatus = "COMPLETED"
	BatchRunStatusFailed    BatchRunStatus = "FAILED"
)

// BandCounts aggregates students per performance band. Bands are disjoint:
// every student is counted exactly once.
type BandCounts struct {
	Thriving         int `db:"thriving_count" json:"thriving"`
	HealthyProgress  int `db:"healthy_count" json:"healthy_progress"`
	NeedsSupport     int `db:"support_count" json:"needs_support"`
	AtRisk           int `db:"at_risk_count" json:"at_risk"`
	InsufficientData int `db:"insufficient_count" json:"insufficient_data"`
}

// BatchError records a per-student failure that did not abort the batch.
type BatchError struct {
	StudentID string `json:"student_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// BatchRun summarises one execution of the daily calculation pipeline.
// Rows are append-only.
type BatchRun struct {
	ID         string         `db:"id" json:"id"`
	RunDate    time.Time      `db:"run_date" json:"run_date"`
	ConfigName string         `db:"config_name" json:"config_name"`
	StartedAt  time.Time      `db:"started_at" json:"started_at"`
	FinishedAt *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
	Status     BatchRunStatus `db:"status" json:"status"`
	Processed  int            `db:"processed" json:"processed"`
	Skipped    int            `db:"skipped" json:"skipped"`
	BandCounts
	Errors []BatchError `db:"-" json:"errors,omitempty"`
}

// StudentOutcome is the per-student slice of a batch result handed between
// pipeline tasks.
type StudentOutcome struct {
	StudentID          string          `json:"student_id"`
	EPRScore           *float64        `json:"epr_score,omitempty"`
	PerformanceBand    PerformanceBand `json:"performance_band"`
	AcademicScore      *float64        `json:"academic_score,omitempty"`
	PsychologicalScore *float64        `json:"psychological_score,omitempty"`
	PhysicalScore      *float64        `json:"physical_score,omitempty"`
}

// Classification buckets batch outcomes for downstream alerting. Buckets
// are disjoint; students without data belong to none of them.
type Classification struct {
	AtRisk       []StudentOutcome `json:"at_risk"`
	NeedsSupport []StudentOutcome `json:"needs_support"`
	Healthy      []StudentOutcome `json:"healthy"`
	Counts       BandCounts       `json:"counts"`
}
