package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusight/prism/internal/models"
)

func TestReportServiceRenderDailyWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	svc := NewReportService(dir, nil)

	score := 42.5
	run := &models.BatchRun{
		RunDate:   time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
		Processed: 3,
		BandCounts: models.BandCounts{
			Thriving: 1,
			AtRisk:   1,
		},
	}
	classification := models.Classification{
		AtRisk: []models.StudentOutcome{
			{StudentID: "stu-1", EPRScore: &score, PerformanceBand: models.BandAtRisk},
		},
	}

	require.NoError(t, svc.RenderDaily(run, classification))

	pdfBytes, err := os.ReadFile(filepath.Join(dir, "wellbeing-report-2026-03-10.pdf"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdfBytes), "%PDF"))

	csvBytes, err := os.ReadFile(filepath.Join(dir, "followup-students-2026-03-10.csv"))
	require.NoError(t, err)
	csv := string(csvBytes)
	assert.Contains(t, csv, "student_id,bucket,epr_score")
	assert.Contains(t, csv, "stu-1,at_risk,42.50")
}

func TestReportServiceRenderDailyEmptyFollowup(t *testing.T) {
	dir := t.TempDir()
	svc := NewReportService(dir, nil)

	run := &models.BatchRun{RunDate: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, svc.RenderDaily(run, models.Classification{}))

	csvBytes, err := os.ReadFile(filepath.Join(dir, "followup-students-2026-03-11.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvBytes)), "\n")
	assert.Len(t, lines, 1)
}
