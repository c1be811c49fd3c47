package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edusight/prism/internal/models"
)

func scored(id string, score float64, band models.PerformanceBand) models.StudentOutcome {
	return models.StudentOutcome{StudentID: id, EPRScore: &score, PerformanceBand: band}
}

func TestClassifyBucketsAreDisjoint(t *testing.T) {
	outcomes := []models.StudentOutcome{
		scored("stu-1", 88.2, models.BandThriving),
		scored("stu-2", 72.0, models.BandHealthyProgress),
		scored("stu-3", 60.0, models.BandNeedsSupport),
		scored("stu-4", 46.5, models.BandAtRisk),
		{StudentID: "stu-5", PerformanceBand: models.BandInsufficientData},
	}

	c := Classify(outcomes)

	assert.Len(t, c.AtRisk, 1)
	assert.Len(t, c.NeedsSupport, 1)
	assert.Len(t, c.Healthy, 2)
	assert.Equal(t, 1, c.Counts.Thriving)
	assert.Equal(t, 1, c.Counts.HealthyProgress)
	assert.Equal(t, 1, c.Counts.NeedsSupport)
	assert.Equal(t, 1, c.Counts.AtRisk)
	assert.Equal(t, 1, c.Counts.InsufficientData)

	total := c.Counts.Thriving + c.Counts.HealthyProgress + c.Counts.NeedsSupport +
		c.Counts.AtRisk + c.Counts.InsufficientData
	assert.Equal(t, len(outcomes), total)
}

func TestClassifyScoreFloorOverridesBand(t *testing.T) {
	// A lenient configuration may band a 48.0 as needs_support; the alert
	// floor still surfaces the student as at risk.
	c := Classify([]models.StudentOutcome{scored("stu-1", 48.0, models.BandNeedsSupport)})
	assert.Len(t, c.AtRisk, 1)
	assert.Empty(t, c.NeedsSupport)

	c = Classify([]models.StudentOutcome{scored("stu-2", 65.0, models.BandHealthyProgress)})
	assert.Len(t, c.NeedsSupport, 1)
	assert.Empty(t, c.Healthy)
}

func TestClassifyBoundaryScores(t *testing.T) {
	c := Classify([]models.StudentOutcome{
		scored("stu-1", 50.0, models.BandNeedsSupport),
		scored("stu-2", 70.0, models.BandHealthyProgress),
	})
	assert.Empty(t, c.AtRisk)
	assert.Len(t, c.NeedsSupport, 1)
	assert.Len(t, c.Healthy, 1)
}

func TestClassifyMissingScoreNeverAlerts(t *testing.T) {
	c := Classify([]models.StudentOutcome{
		{StudentID: "stu-1", PerformanceBand: models.BandInsufficientData},
	})
	assert.Empty(t, c.AtRisk)
	assert.Empty(t, c.NeedsSupport)
	assert.Empty(t, c.Healthy)
	assert.Equal(t, 1, c.Counts.InsufficientData)
}

func TestClassifyEmptyInput(t *testing.T) {
	c := Classify(nil)
	assert.Equal(t, models.BandCounts{}, c.Counts)
}
