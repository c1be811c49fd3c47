package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/pkg/config"
	"github.com/edusight/prism/pkg/jobs"
	"github.com/edusight/prism/pkg/mail"
)

// maxListedStudents caps how many at-risk students appear inline in an
// alert body. The remainder is summarised as a count.
const maxListedStudents = 10

const atRiskSubject = "At-Risk Student Alert - {{date}}"

const atRiskBody = `{{count}} students were classified as at risk in the wellbeing run on {{date}}.

{{students}}
Please review these students and coordinate follow-up with their counselors.`

const dailyReportSubject = "Daily Wellbeing Report - {{date}}"

const dailyReportBody = `Wellbeing calculation completed for {{date}}.

Students processed: {{processed}}
Thriving: {{thriving}}
Healthy progress: {{healthy_progress}}
Needs support: {{needs_support}}
At risk: {{at_risk}}
Insufficient data: {{insufficient_data}}
Failures: {{failures}}

Generated at {{generated_at}}.`

const failureSubject = "Wellbeing Pipeline Failed - {{date}}"

const failureBody = `The wellbeing calculation run on {{date}} did not complete.

Run ID: {{run_id}}
Task: {{task}}
Error: {{error}}

No results were published for this run. The next scheduled run will retry from scratch.`

// Notifier renders notification templates and dispatches them through a
// background mail outbox. Enqueueing never blocks pipeline tasks on
// delivery; retries happen inside the queue.
type Notifier struct {
	sink       mail.Sink
	queue      *jobs.Queue
	recipients config.AlertConfig
	logger     *zap.Logger
}

// NewNotifier constructs a Notifier around the given sink.
func NewNotifier(sink mail.Sink, cfg config.AlertConfig, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{
		sink:       sink,
		recipients: cfg,
		logger:     logger,
	}
	n.queue = jobs.NewQueue("mail-outbox", n.deliver, jobs.QueueConfig{
		Workers:    cfg.MailWorkers,
		MaxRetries: cfg.MailRetries,
		RetryDelay: cfg.MailRetryDelay,
		Logger:     logger,
	})
	return n
}

// Start launches the outbox workers.
func (n *Notifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the outbox workers.
func (n *Notifier) Stop() {
	n.queue.Stop()
}

// AlertAtRisk sends the counselor alert when a run classified students as
// at risk. Nothing is sent when the bucket is empty or no recipient is
// configured.
func (n *Notifier) AlertAtRisk(runDate time.Time, atRisk []models.StudentOutcome) error {
	if len(atRisk) == 0 || len(n.recipients.AtRiskRecipients) == 0 {
		return nil
	}

	var lines strings.Builder
	listed := atRisk
	if len(listed) > maxListedStudents {
		listed = listed[:maxListedStudents]
	}
	for _, student := range listed {
		lines.WriteString(fmt.Sprintf("- Student ID: %s, EPR Score: %s\n", student.StudentID, formatScore(student.EPRScore)))
	}
	if remainder := len(atRisk) - len(listed); remainder > 0 {
		lines.WriteString(fmt.Sprintf("- and %d more students\n", remainder))
	}

	values := map[string]string{
		"date":     runDate.UTC().Format("2006-01-02"),
		"count":    fmt.Sprintf("%d", len(atRisk)),
		"students": lines.String(),
	}
	return n.enqueue("at_risk_alert", n.recipients.AtRiskRecipients, atRiskSubject, atRiskBody, values)
}

// SendDailyReport sends the run summary to administrators.
func (n *Notifier) SendDailyReport(run *models.BatchRun) error {
	if len(n.recipients.ReportRecipients) == 0 {
		return nil
	}

	values := map[string]string{
		"date":              run.RunDate.UTC().Format("2006-01-02"),
		"processed":         fmt.Sprintf("%d", run.Processed),
		"thriving":          fmt.Sprintf("%d", run.Thriving),
		"healthy_progress":  fmt.Sprintf("%d", run.HealthyProgress),
		"needs_support":     fmt.Sprintf("%d", run.NeedsSupport),
		"at_risk":           fmt.Sprintf("%d", run.AtRisk),
		"insufficient_data": fmt.Sprintf("%d", run.InsufficientData),
		"failures":          fmt.Sprintf("%d", len(run.Errors)),
		"generated_at":      time.Now().UTC().Format(time.RFC3339),
	}
	return n.enqueue("daily_report", n.recipients.ReportRecipients, dailyReportSubject, dailyReportBody, values)
}

// NotifyFailure reports an aborted pipeline run to the failure list.
func (n *Notifier) NotifyFailure(runDate time.Time, runID, task string, cause error) error {
	if len(n.recipients.FailureEmails) == 0 {
		return nil
	}

	message := ""
	if cause != nil {
		message = cause.Error()
	}
	values := map[string]string{
		"date":   runDate.UTC().Format("2006-01-02"),
		"run_id": runID,
		"task":   task,
		"error":  message,
	}
	return n.enqueue("pipeline_failure", n.recipients.FailureEmails, failureSubject, failureBody, values)
}

func (n *Notifier) enqueue(kind string, recipients []string, subject, body string, values map[string]string) error {
	msg := mail.Message{
		Recipients: recipients,
		Subject:    Render(subject, values),
		Body:       Render(body, values),
	}
	err := n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    kind,
		Payload: msg,
	})
	if err != nil {
		n.logger.Error("failed to enqueue notification", zap.String("kind", kind), zap.Error(err))
		return err
	}
	return nil
}

func (n *Notifier) deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mail.Message)
	if !ok {
		n.logger.Error("dropping malformed mail job", zap.String("job_id", job.ID))
		return nil
	}
	return n.sink.Send(ctx, msg)
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *score)
}
