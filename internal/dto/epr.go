package dto

// CreateConfigurationRequest is the payload for registering a new weighting
// configuration. Weights and thresholds are also checked by the scoring
// layer; the struct tags only catch the obvious shape errors early.
type CreateConfigurationRequest struct {
	Name                string  `json:"name" binding:"required,min=1,max=120" validate:"required,min=1,max=120"`
	AgeGroup            string  `json:"age_group" binding:"required,min=1,max=40" validate:"required,min=1,max=40"`
	AcademicWeight      float64 `json:"academic_weight" binding:"min=0,max=100" validate:"min=0,max=100"`
	PsychologicalWeight float64 `json:"psychological_weight" binding:"min=0,max=100" validate:"min=0,max=100"`
	PhysicalWeight      float64 `json:"physical_weight" binding:"min=0,max=100" validate:"min=0,max=100"`
	ThrivingThreshold   float64 `json:"thriving_threshold" binding:"required,gt=0,lt=100" validate:"required,gt=0,lt=100"`
	HealthyThreshold    float64 `json:"healthy_threshold" binding:"required,gt=0,lt=100" validate:"required,gt=0,lt=100"`
	SupportThreshold    float64 `json:"support_threshold" binding:"required,gt=0,lt=100" validate:"required,gt=0,lt=100"`
	Activate            bool    `json:"activate"`
}

// TriggerRunRequest asks the pipeline for an out-of-schedule run.
type TriggerRunRequest struct {
	ConfigName string `json:"config_name" binding:"omitempty,max=120"`
	Force      bool   `json:"force"`
}

// HistoryQuery bounds result history listings.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
