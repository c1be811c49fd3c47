package pipeline

import "github.com/edusight/prism/internal/models"

// Alerting floors applied on top of the banding thresholds. A student whose
// configuration placed them in a higher band still surfaces for follow-up
// when the absolute score sits below these values.
const (
	atRiskScoreFloor  = 50.0
	supportScoreFloor = 70.0
)

// Classify buckets batch outcomes for downstream alerting. Buckets are
// disjoint and evaluated in severity order; students without a score are
// counted but never alerted on.
func Classify(outcomes []models.StudentOutcome) models.Classification {
	var c models.Classification
	for _, outcome := range outcomes {
		switch {
		case outcome.EPRScore == nil || outcome.PerformanceBand == models.BandInsufficientData:
			c.Counts.InsufficientData++
		case outcome.PerformanceBand == models.BandAtRisk || *outcome.EPRScore < atRiskScoreFloor:
			c.AtRisk = append(c.AtRisk, outcome)
			c.Counts.AtRisk++
		case outcome.PerformanceBand == models.BandNeedsSupport || *outcome.EPRScore < supportScoreFloor:
			c.NeedsSupport = append(c.NeedsSupport, outcome)
			c.Counts.NeedsSupport++
		default:
			c.Healthy = append(c.Healthy, outcome)
			if outcome.PerformanceBand == models.BandThriving {
				c.Counts.Thriving++
			} else {
				c.Counts.HealthyProgress++
			}
		}
	}
	return c
}
