package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/pkg/config"
	"github.com/edusight/prism/pkg/mail"
)

type captureSink struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (s *captureSink) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *captureSink) snapshot() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Message(nil), s.messages...)
}

func alertConfig() config.AlertConfig {
	return config.AlertConfig{
		AtRiskRecipients: []string{"counselors@school.edu"},
		ReportRecipients: []string{"admin@school.edu"},
		FailureEmails:    []string{"admin@school.edu"},
		MailWorkers:      1,
		MailRetries:      1,
		MailRetryDelay:   time.Millisecond,
	}
}

func startNotifier(t *testing.T, sink mail.Sink, cfg config.AlertConfig) *Notifier {
	t.Helper()
	n := NewNotifier(sink, cfg, nil)
	n.Start(context.Background())
	t.Cleanup(n.Stop)
	return n
}

func waitForMessages(t *testing.T, sink *captureSink, want int) []mail.Message {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == want
	}, time.Second, 5*time.Millisecond)
	return sink.snapshot()
}

func atRiskStudents(count int) []models.StudentOutcome {
	students := make([]models.StudentOutcome, 0, count)
	for i := 0; i < count; i++ {
		score := 42.5
		students = append(students, models.StudentOutcome{
			StudentID:       fmt.Sprintf("stu-%02d", i+1),
			EPRScore:        &score,
			PerformanceBand: models.BandAtRisk,
		})
	}
	return students
}

func TestNotifierAlertAtRiskRendersStudents(t *testing.T) {
	sink := &captureSink{}
	n := startNotifier(t, sink, alertConfig())

	runDate := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	require.NoError(t, n.AlertAtRisk(runDate, atRiskStudents(2)))

	messages := waitForMessages(t, sink, 1)
	msg := messages[0]
	assert.Equal(t, []string{"counselors@school.edu"}, msg.Recipients)
	assert.Equal(t, "At-Risk Student Alert - 2026-03-10", msg.Subject)
	assert.Contains(t, msg.Body, "2 students were classified as at risk")
	assert.Contains(t, msg.Body, "- Student ID: stu-01, EPR Score: 42.5")
	assert.Contains(t, msg.Body, "- Student ID: stu-02, EPR Score: 42.5")
	assert.NotContains(t, msg.Body, "more students")
}

func TestNotifierAlertAtRiskTruncatesLongLists(t *testing.T) {
	sink := &captureSink{}
	n := startNotifier(t, sink, alertConfig())

	require.NoError(t, n.AlertAtRisk(time.Now(), atRiskStudents(14)))

	messages := waitForMessages(t, sink, 1)
	body := messages[0].Body
	assert.Equal(t, maxListedStudents, strings.Count(body, "- Student ID:"))
	assert.Contains(t, body, "- and 4 more students")
}

func TestNotifierAlertAtRiskSkipsEmptyBucket(t *testing.T) {
	sink := &captureSink{}
	n := startNotifier(t, sink, alertConfig())

	require.NoError(t, n.AlertAtRisk(time.Now(), nil))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sink.snapshot())
}

func TestNotifierDailyReportCountsAreDisjoint(t *testing.T) {
	sink := &captureSink{}
	n := startNotifier(t, sink, alertConfig())

	run := &models.BatchRun{
		RunDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Processed: 120,
		BandCounts: models.BandCounts{
			Thriving:         30,
			HealthyProgress:  60,
			NeedsSupport:     18,
			AtRisk:           7,
			InsufficientData: 5,
		},
		Errors: []models.BatchError{{StudentID: "stu-9", Kind: "METRIC_OUT_OF_RANGE"}},
	}
	require.NoError(t, n.SendDailyReport(run))

	messages := waitForMessages(t, sink, 1)
	body := messages[0].Body
	assert.Contains(t, body, "Students processed: 120")
	assert.Contains(t, body, "Thriving: 30")
	assert.Contains(t, body, "Healthy progress: 60")
	assert.Contains(t, body, "Needs support: 18")
	assert.Contains(t, body, "At risk: 7")
	assert.Contains(t, body, "Insufficient data: 5")
	assert.Contains(t, body, "Failures: 1")
	assert.Contains(t, body, "Generated at ")
}

func TestNotifierFailureIncludesCause(t *testing.T) {
	sink := &captureSink{}
	n := startNotifier(t, sink, alertConfig())

	require.NoError(t, n.NotifyFailure(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		"run-7", "health_check", fmt.Errorf("insufficient disk space")))

	messages := waitForMessages(t, sink, 1)
	msg := messages[0]
	assert.Equal(t, "Wellbeing Pipeline Failed - 2026-03-10", msg.Subject)
	assert.Contains(t, msg.Body, "Run ID: run-7")
	assert.Contains(t, msg.Body, "Task: health_check")
	assert.Contains(t, msg.Body, "Error: insufficient disk space")
}
