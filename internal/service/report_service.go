package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/pkg/export"
)

// ReportService renders daily run artifacts: a PDF summary for
// administrators and a CSV of students needing follow-up for counselors.
// Artifacts land in the configured storage directory named by run date.
type ReportService struct {
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	storageDir string
	logger     *zap.Logger
}

// NewReportService constructs a ReportService writing into storageDir.
func NewReportService(storageDir string, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		storageDir: storageDir,
		logger:     logger,
	}
}

// RenderDaily writes both artifacts for a completed run.
func (s *ReportService) RenderDaily(run *models.BatchRun, classification models.Classification) error {
	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	date := run.RunDate.UTC().Format("2006-01-02")

	pdfBytes, err := s.renderSummaryPDF(run, classification, date)
	if err != nil {
		return err
	}
	pdfPath := filepath.Join(s.storageDir, fmt.Sprintf("wellbeing-report-%s.pdf", date))
	if err := os.WriteFile(pdfPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("write report pdf: %w", err)
	}

	csvBytes, err := s.renderFollowupCSV(classification)
	if err != nil {
		return err
	}
	csvPath := filepath.Join(s.storageDir, fmt.Sprintf("followup-students-%s.csv", date))
	if err := os.WriteFile(csvPath, csvBytes, 0o644); err != nil {
		return fmt.Errorf("write followup csv: %w", err)
	}

	s.logger.Info("daily report artifacts written",
		zap.String("pdf", pdfPath),
		zap.String("csv", csvPath))
	return nil
}

func (s *ReportService) renderSummaryPDF(run *models.BatchRun, classification models.Classification, date string) ([]byte, error) {
	summary := []string{
		fmt.Sprintf("Run date: %s", date),
		fmt.Sprintf("Students processed: %d", run.Processed),
		fmt.Sprintf("Skipped (already current): %d", run.Skipped),
		fmt.Sprintf("Failures: %d", len(run.Errors)),
		fmt.Sprintf("Generated at %s", time.Now().UTC().Format(time.RFC3339)),
	}
	data := export.Dataset{
		Headers: []string{"Band", "Students"},
		Rows: []map[string]string{
			{"Band": "Thriving", "Students": fmt.Sprintf("%d", run.Thriving)},
			{"Band": "Healthy progress", "Students": fmt.Sprintf("%d", run.HealthyProgress)},
			{"Band": "Needs support", "Students": fmt.Sprintf("%d", run.NeedsSupport)},
			{"Band": "At risk", "Students": fmt.Sprintf("%d", run.AtRisk)},
			{"Band": "Insufficient data", "Students": fmt.Sprintf("%d", run.InsufficientData)},
		},
	}
	pdfBytes, err := s.pdf.Render(data, "Daily Wellbeing Report", summary)
	if err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return pdfBytes, nil
}

func (s *ReportService) renderFollowupCSV(classification models.Classification) ([]byte, error) {
	data := export.Dataset{
		Headers: []string{"student_id", "bucket", "epr_score", "academic_score", "psychological_score", "physical_score"},
	}
	appendRows := func(bucket string, outcomes []models.StudentOutcome) {
		for _, o := range outcomes {
			data.Rows = append(data.Rows, map[string]string{
				"student_id":          o.StudentID,
				"bucket":              bucket,
				"epr_score":           formatCell(o.EPRScore),
				"academic_score":      formatCell(o.AcademicScore),
				"psychological_score": formatCell(o.PsychologicalScore),
				"physical_score":      formatCell(o.PhysicalScore),
			})
		}
	}
	appendRows("at_risk", classification.AtRisk)
	appendRows("needs_support", classification.NeedsSupport)

	csvBytes, err := s.csv.Render(data)
	if err != nil {
		return nil, fmt.Errorf("render followup csv: %w", err)
	}
	return csvBytes, nil
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
