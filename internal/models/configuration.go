package models

import "time"

// EPRConfig defines the weighting and banding profile used when computing
// Edusight Prism Ratings. Exactly one configuration is active per age group
// at any time; historical results never reference configurations by id but
// carry a frozen ConfigSnapshot instead.
type EPRConfig struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	AgeGroup            string    `db:"age_group" json:"age_group"`
	IsActive            bool      `db:"is_active" json:"is_active"`
	AcademicWeight      float64   `db:"academic_weight" json:"academic_weight"`
	PsychologicalWeight float64   `db:"psychological_weight" json:"psychological_weight"`
	PhysicalWeight      float64   `db:"physical_weight" json:"physical_weight"`
	ThrivingThreshold   float64   `db:"thriving_threshold" json:"thriving_threshold"`
	HealthyThreshold    float64   `db:"healthy_threshold" json:"healthy_threshold"`
	SupportThreshold    float64   `db:"support_threshold" json:"support_threshold"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Snapshot freezes the weights and thresholds for storage inside a result.
func (c *EPRConfig) Snapshot() ConfigSnapshot {
	return ConfigSnapshot{
		ConfigName:          c.Name,
		AcademicWeight:      c.AcademicWeight,
		PsychologicalWeight: c.PsychologicalWeight,
		PhysicalWeight:      c.PhysicalWeight,
		ThrivingThreshold:   c.ThrivingThreshold,
		HealthyThreshold:    c.HealthyThreshold,
		SupportThreshold:    c.SupportThreshold,
	}
}

// ConfigSnapshot is the copy of weights and thresholds stored inside each
// EPRResult at computation time. Later configuration edits never
// retroactively change persisted bands.
type ConfigSnapshot struct {
	ConfigName          string  `db:"config_name" json:"config_name"`
	AcademicWeight      float64 `db:"academic_weight" json:"academic_weight"`
	PsychologicalWeight float64 `db:"psychological_weight" json:"psychological_weight"`
	PhysicalWeight      float64 `db:"physical_weight" json:"physical_weight"`
	ThrivingThreshold   float64 `db:"thriving_threshold" json:"thriving_threshold"`
	HealthyThreshold    float64 `db:"healthy_threshold" json:"healthy_threshold"`
	SupportThreshold    float64 `db:"support_threshold" json:"support_threshold"`
}
