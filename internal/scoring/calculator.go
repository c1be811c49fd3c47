package scoring

import (
	"fmt"
	"math"

	"github.com/edusight/prism/internal/models"
	appErrors "github.com/edusight/prism/pkg/errors"
)

const weightSumTolerance = 1e-9

// DomainScores carries the per-domain composites for one student. A nil
// entry means the domain had no assessment data.
type DomainScores struct {
	Academic      *float64
	Psychological *float64
	Physical      *float64
}

// Present reports whether at least one domain composite exists.
func (d DomainScores) Present() bool {
	return d.Academic != nil || d.Psychological != nil || d.Physical != nil
}

// Combine weighs the present domain composites into the final EPR score
// and maps it to a performance band using the snapshot thresholds. Missing
// domains reweight the remainder; they are never imputed as zero. When no
// domain is present the score is nil and the band is insufficient_data.
func Combine(scores DomainScores, snap models.ConfigSnapshot) (*float64, models.PerformanceBand) {
	var weighted, totalWeight float64

	if scores.Academic != nil {
		weighted += snap.AcademicWeight * *scores.Academic
		totalWeight += snap.AcademicWeight
	}
	if scores.Psychological != nil {
		weighted += snap.PsychologicalWeight * *scores.Psychological
		totalWeight += snap.PsychologicalWeight
	}
	if scores.Physical != nil {
		weighted += snap.PhysicalWeight * *scores.Physical
		totalWeight += snap.PhysicalWeight
	}

	if totalWeight == 0 {
		return nil, models.BandInsufficientData
	}

	score := Round2(weighted / totalWeight)
	return &score, BandFor(score, snap)
}

// BandFor maps a score onto its performance band. Intervals are half-open
// with the high end inclusive: [thriving, 100] -> thriving,
// [healthy, thriving) -> healthy_progress, [support, healthy) ->
// needs_support, [0, support) -> at_risk.
func BandFor(score float64, snap models.ConfigSnapshot) models.PerformanceBand {
	switch {
	case score >= snap.ThrivingThreshold:
		return models.BandThriving
	case score >= snap.HealthyThreshold:
		return models.BandHealthyProgress
	case score >= snap.SupportThreshold:
		return models.BandNeedsSupport
	default:
		return models.BandAtRisk
	}
}

// ValidateConfig enforces the configuration invariants: nonnegative weights
// summing to exactly 100 and strictly descending band thresholds inside
// (0, 100).
func ValidateConfig(c *models.EPRConfig) error {
	if c.AcademicWeight < 0 || c.PsychologicalWeight < 0 || c.PhysicalWeight < 0 {
		return appErrors.Clone(appErrors.ErrInvalidWeights, "domain weights must be nonnegative")
	}
	sum := c.AcademicWeight + c.PsychologicalWeight + c.PhysicalWeight
	if math.Abs(sum-100) > weightSumTolerance {
		return appErrors.Clone(appErrors.ErrInvalidWeights,
			fmt.Sprintf("domain weights must sum to 100, got %g", sum))
	}

	thresholds := []struct {
		field string
		value float64
	}{
		{"thriving_threshold", c.ThrivingThreshold},
		{"healthy_threshold", c.HealthyThreshold},
		{"support_threshold", c.SupportThreshold},
	}
	for _, t := range thresholds {
		if t.value <= 0 || t.value >= 100 {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("%s must be within (0, 100), got %g", t.field, t.value))
		}
	}
	if !(c.ThrivingThreshold > c.HealthyThreshold && c.HealthyThreshold > c.SupportThreshold) {
		return appErrors.Clone(appErrors.ErrValidation, "band thresholds must be strictly descending")
	}

	return nil
}
