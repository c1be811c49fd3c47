package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/internal/service"
	"github.com/edusight/prism/pkg/config"
	appErrors "github.com/edusight/prism/pkg/errors"
)

type fakeBatch struct {
	mu       sync.Mutex
	calls    int
	failures int
	run      *models.BatchRun
	outcomes []models.StudentOutcome
}

func (f *fakeBatch) Run(ctx context.Context, opts service.BatchOptions) (*models.BatchRun, []models.StudentOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, nil, appErrors.Clone(appErrors.ErrPersistence, "store unreachable")
	}
	return f.run, f.outcomes, nil
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Check(ctx context.Context) error { return f.err }

type fakeNotifier struct {
	mu        sync.Mutex
	alerts    []int
	reports   int
	failures  []string
	alertErr  error
	reportErr error
}

func (f *fakeNotifier) AlertAtRisk(runDate time.Time, atRisk []models.StudentOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alertErr != nil {
		return f.alertErr
	}
	f.alerts = append(f.alerts, len(atRisk))
	return nil
}

func (f *fakeNotifier) SendDailyReport(run *models.BatchRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return f.reportErr
	}
	f.reports++
	return nil
}

func (f *fakeNotifier) NotifyFailure(runDate time.Time, runID, task string, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, task)
	return nil
}

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		Enabled:        true,
		BatchSize:      100,
		TaskRetries:    2,
		TaskRetryDelay: time.Millisecond,
		TaskTimeout:    time.Second,
	}
}

func completedRun(atRisk int) (*models.BatchRun, []models.StudentOutcome) {
	run := &models.BatchRun{
		ID:      "run-1",
		RunDate: time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
		Status:  models.BatchRunStatusCompleted,
	}
	var outcomes []models.StudentOutcome
	for i := 0; i < atRisk; i++ {
		outcomes = append(outcomes, scored("stu-at-risk", 42.0, models.BandAtRisk))
	}
	outcomes = append(outcomes, scored("stu-ok", 90.0, models.BandThriving))
	run.Processed = len(outcomes)
	return run, outcomes
}

func newTestRunner(batch *fakeBatch, health *fakeHealth, notifier *fakeNotifier, cfg config.PipelineConfig) *Runner {
	handoff := NewHandoff(nil, 0, 0, nil)
	return NewRunner(batch, health, notifier, nil, handoff, nil, cfg, nil)
}

func TestRunnerExecutesAllTasks(t *testing.T) {
	run, outcomes := completedRun(2)
	batch := &fakeBatch{run: run, outcomes: outcomes}
	notifier := &fakeNotifier{}
	runner := newTestRunner(batch, &fakeHealth{}, notifier, pipelineConfig())

	got, err := runner.Execute(context.Background(), service.BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 1, batch.calls)
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, 2, notifier.alerts[0])
	assert.Equal(t, 1, notifier.reports)
	assert.Empty(t, notifier.failures)
}

func TestRunnerHealthFailureAbortsBeforeCalculation(t *testing.T) {
	batch := &fakeBatch{}
	notifier := &fakeNotifier{}
	runner := newTestRunner(batch, &fakeHealth{err: appErrors.Clone(appErrors.ErrHealthCheck, "disk full")}, notifier, pipelineConfig())

	_, err := runner.Execute(context.Background(), service.BatchOptions{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHealthCheck.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, batch.calls)
	require.Len(t, notifier.failures, 1)
	assert.Equal(t, TaskHealthCheck, notifier.failures[0])
}

func TestRunnerRetriesTransientFailure(t *testing.T) {
	run, outcomes := completedRun(0)
	batch := &fakeBatch{run: run, outcomes: outcomes, failures: 2}
	notifier := &fakeNotifier{}
	runner := newTestRunner(batch, &fakeHealth{}, notifier, pipelineConfig())

	_, err := runner.Execute(context.Background(), service.BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, batch.calls)
	assert.Empty(t, notifier.failures)
}

func TestRunnerExhaustedRetriesFailTheRun(t *testing.T) {
	batch := &fakeBatch{failures: 10}
	notifier := &fakeNotifier{}
	runner := newTestRunner(batch, &fakeHealth{}, notifier, pipelineConfig())

	_, err := runner.Execute(context.Background(), service.BatchOptions{})
	require.Error(t, err)
	assert.Equal(t, 3, batch.calls)
	require.Len(t, notifier.failures, 1)
	assert.Equal(t, TaskCalculate, notifier.failures[0])
}

func TestRunnerNotificationFailureDoesNotAbort(t *testing.T) {
	run, outcomes := completedRun(1)
	batch := &fakeBatch{run: run, outcomes: outcomes}
	notifier := &fakeNotifier{alertErr: appErrors.Clone(appErrors.ErrInternal, "smtp down")}
	cfg := pipelineConfig()
	cfg.TaskRetries = 0
	runner := newTestRunner(batch, &fakeHealth{}, notifier, cfg)

	got, err := runner.Execute(context.Background(), service.BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.BatchRunStatusCompleted, got.Status)
	assert.Equal(t, 1, notifier.reports)
	require.Len(t, notifier.failures, 1)
	assert.Equal(t, TaskAlert, notifier.failures[0])
}

func TestRunnerReportFailureNotifiesOperator(t *testing.T) {
	run, outcomes := completedRun(0)
	batch := &fakeBatch{run: run, outcomes: outcomes}
	notifier := &fakeNotifier{reportErr: appErrors.Clone(appErrors.ErrInternal, "renderer broken")}
	cfg := pipelineConfig()
	cfg.TaskRetries = 0
	runner := newTestRunner(batch, &fakeHealth{}, notifier, cfg)

	got, err := runner.Execute(context.Background(), service.BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.BatchRunStatusCompleted, got.Status)
	require.Len(t, notifier.failures, 1)
	assert.Equal(t, TaskReport, notifier.failures[0])
}

func TestRunnerRejectsConcurrentRuns(t *testing.T) {
	run, outcomes := completedRun(0)
	batch := &fakeBatch{run: run, outcomes: outcomes}
	runner := newTestRunner(batch, &fakeHealth{}, &fakeNotifier{}, pipelineConfig())
	runner.active.Store(true)

	_, err := runner.Execute(context.Background(), service.BatchOptions{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, batch.calls)
}

func TestRunnerTaskTimeoutIsTyped(t *testing.T) {
	cfg := pipelineConfig()
	cfg.TaskRetries = 0
	cfg.TaskTimeout = 10 * time.Millisecond

	slowBatch := &slowBatchRunner{delay: 50 * time.Millisecond}
	notifier := &fakeNotifier{}
	handoff := NewHandoff(nil, 0, 0, nil)
	runner := NewRunner(slowBatch, &fakeHealth{}, notifier, nil, handoff, nil, cfg, nil)

	_, err := runner.Execute(context.Background(), service.BatchOptions{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTaskTimeout.Code, appErrors.FromError(err).Code)
}

type slowBatchRunner struct {
	delay time.Duration
}

func (s *slowBatchRunner) Run(ctx context.Context, opts service.BatchOptions) (*models.BatchRun, []models.StudentOutcome, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-time.After(s.delay):
		return &models.BatchRun{ID: "run-slow"}, nil, nil
	}
}

func TestRunnerOverridesReplaceDefaults(t *testing.T) {
	cfg := pipelineConfig()
	cfg.ConfigName = "default"
	runner := newTestRunner(&fakeBatch{}, &fakeHealth{}, &fakeNotifier{}, cfg)

	opts := runner.options(service.BatchOptions{ConfigName: "winter-term", Force: true})
	assert.Equal(t, "winter-term", opts.ConfigName)
	assert.True(t, opts.Force)
	assert.Equal(t, 100, opts.BatchSize)

	opts = runner.options(service.BatchOptions{})
	assert.Equal(t, "default", opts.ConfigName)
	assert.False(t, opts.Force)
}
