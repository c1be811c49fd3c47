package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/internal/service"
	"github.com/edusight/prism/pkg/config"
	appErrors "github.com/edusight/prism/pkg/errors"
)

// Task names in execution order. Health check and calculation precede
// classification; alerting and reporting both depend on classification and
// completion seals the run.
const (
	TaskHealthCheck = "system_health_check"
	TaskCalculate   = "calculate_epr_scores"
	TaskClassify    = "process_epr_results"
	TaskAlert       = "send_at_risk_alert"
	TaskReport      = "send_daily_report"
	TaskComplete    = "epr_calculation_complete"
)

type batchRunner interface {
	Run(ctx context.Context, opts service.BatchOptions) (*models.BatchRun, []models.StudentOutcome, error)
}

type alertSender interface {
	AlertAtRisk(runDate time.Time, atRisk []models.StudentOutcome) error
	SendDailyReport(run *models.BatchRun) error
	NotifyFailure(runDate time.Time, runID, task string, cause error) error
}

type healthProbe interface {
	Check(ctx context.Context) error
}

// ReportRenderer writes run artifacts once a batch completes.
type ReportRenderer interface {
	RenderDaily(run *models.BatchRun, classification models.Classification) error
}

// runState is the typed payload handed from task to task. Each task reads
// the fields its predecessors filled in; there is no untyped context bag.
type runState struct {
	opts           service.BatchOptions
	run            *models.BatchRun
	outcomes       []models.StudentOutcome
	handoffKey     string
	classification models.Classification
}

type task struct {
	name string
	// critical tasks abort the run when they fail after retries; the rest
	// log and let the run continue.
	critical bool
	execute  func(ctx context.Context, state *runState) error
}

// Runner executes the daily calculation pipeline as a fixed task sequence
// with bounded retries. At most one run is active at a time; a trigger
// arriving mid-run is rejected rather than queued.
type Runner struct {
	batch    batchRunner
	health   healthProbe
	notifier alertSender
	reports  ReportRenderer
	handoff  *Handoff
	metrics  *service.MetricsService
	cfg      config.PipelineConfig
	logger   *zap.Logger
	active   atomic.Bool
}

// NewRunner constructs a pipeline Runner. The report renderer may be nil
// when exports are disabled.
func NewRunner(batch batchRunner, health healthProbe, notifier alertSender, reports ReportRenderer,
	handoff *Handoff, metrics *service.MetricsService, cfg config.PipelineConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		batch:    batch,
		health:   health,
		notifier: notifier,
		reports:  reports,
		handoff:  handoff,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

// Execute runs the full pipeline once. Overrides replace the configured
// defaults for this run only; zero values keep them.
func (r *Runner) Execute(ctx context.Context, overrides service.BatchOptions) (*models.BatchRun, error) {
	if !r.active.CompareAndSwap(false, true) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a pipeline run is already active")
	}
	defer r.active.Store(false)

	state := &runState{opts: r.options(overrides)}
	started := time.Now()
	r.logger.Info("pipeline run starting",
		zap.Time("run_date", state.opts.RunDate),
		zap.Bool("force", state.opts.Force))

	for _, t := range r.tasks() {
		err := r.runTask(ctx, t, state)
		if err == nil {
			continue
		}
		if !t.critical {
			r.logger.Warn("non-critical task failed, continuing",
				zap.String("task", t.name), zap.Error(err))
			r.notifyFailure(state, t.name, err)
			continue
		}

		r.metrics.ObserveRun("failed", time.Since(started))
		r.logger.Error("pipeline run failed",
			zap.String("task", t.name), zap.Error(err))
		r.notifyFailure(state, t.name, err)
		return state.run, err
	}

	r.metrics.ObserveRun("completed", time.Since(started))
	return state.run, nil
}

// Running reports whether a run is currently active.
func (r *Runner) Running() bool {
	return r.active.Load()
}

func (r *Runner) options(overrides service.BatchOptions) service.BatchOptions {
	opts := service.BatchOptions{
		RunDate:    time.Now().UTC(),
		ConfigName: r.cfg.ConfigName,
		Force:      r.cfg.ForceRecalculation,
		BatchSize:  r.cfg.BatchSize,
	}
	if !overrides.RunDate.IsZero() {
		opts.RunDate = overrides.RunDate
	}
	if overrides.ConfigName != "" {
		opts.ConfigName = overrides.ConfigName
	}
	if overrides.Force {
		opts.Force = true
	}
	if overrides.BatchSize > 0 {
		opts.BatchSize = overrides.BatchSize
	}
	return opts
}

func (r *Runner) tasks() []task {
	return []task{
		{name: TaskHealthCheck, critical: true, execute: r.checkHealth},
		{name: TaskCalculate, critical: true, execute: r.calculate},
		{name: TaskClassify, critical: true, execute: r.classify},
		{name: TaskAlert, execute: r.alert},
		{name: TaskReport, execute: r.report},
		{name: TaskComplete, critical: true, execute: r.complete},
	}
}

// runTask executes one task with a per-attempt timeout and bounded retries.
func (r *Runner) runTask(ctx context.Context, t task, state *runState) error {
	attempts := r.cfg.TaskRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		started := time.Now()
		err := r.attempt(ctx, t, state)
		if err == nil {
			r.metrics.ObserveTask(t.name, "success", time.Since(started))
			return nil
		}
		r.metrics.ObserveTask(t.name, "failure", time.Since(started))
		lastErr = err

		if attempt == attempts {
			break
		}
		r.logger.Warn("task failed, retrying",
			zap.String("task", t.name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", r.cfg.TaskRetryDelay),
			zap.Error(err))

		timer := time.NewTimer(r.cfg.TaskRetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (r *Runner) attempt(ctx context.Context, t task, state *runState) error {
	taskCtx := ctx
	cancel := context.CancelFunc(func() {})
	if r.cfg.TaskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, r.cfg.TaskTimeout)
	}
	defer cancel()

	err := t.execute(taskCtx, state)
	if err != nil && errors.Is(taskCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return appErrors.Wrap(err, appErrors.ErrTaskTimeout.Code, appErrors.ErrTaskTimeout.Status,
			t.name+" exceeded its time budget")
	}
	return err
}

func (r *Runner) checkHealth(ctx context.Context, _ *runState) error {
	return r.health.Check(ctx)
}

func (r *Runner) calculate(ctx context.Context, state *runState) error {
	run, outcomes, err := r.batch.Run(ctx, state.opts)
	state.run = run
	if err != nil {
		return err
	}

	if key, offloaded := r.handoff.Offload(ctx, run.ID, outcomes); offloaded {
		state.handoffKey = key
		state.outcomes = nil
		return nil
	}
	state.outcomes = outcomes
	return nil
}

func (r *Runner) classify(ctx context.Context, state *runState) error {
	outcomes := state.outcomes
	if state.handoffKey != "" {
		loaded, err := r.handoff.Load(ctx, state.handoffKey)
		if err != nil {
			return err
		}
		outcomes = loaded
	}
	state.classification = Classify(outcomes)
	return nil
}

func (r *Runner) alert(_ context.Context, state *runState) error {
	return r.notifier.AlertAtRisk(state.run.RunDate, state.classification.AtRisk)
}

func (r *Runner) report(_ context.Context, state *runState) error {
	if err := r.notifier.SendDailyReport(state.run); err != nil {
		return err
	}
	if r.reports != nil {
		return r.reports.RenderDaily(state.run, state.classification)
	}
	return nil
}

func (r *Runner) complete(ctx context.Context, state *runState) error {
	r.handoff.Discard(ctx, state.handoffKey)
	r.logger.Info("pipeline run completed",
		zap.String("run_id", state.run.ID),
		zap.Int("processed", state.run.Processed),
		zap.Int("at_risk", state.classification.Counts.AtRisk),
		zap.Int("failed", len(state.run.Errors)))
	return nil
}

// notifyFailure emails the operator about a task that exhausted its
// retries. Critical and non-critical tasks both notify; only critical
// ones abort the run.
func (r *Runner) notifyFailure(state *runState, taskName string, cause error) {
	runID := ""
	if state.run != nil {
		runID = state.run.ID
	}
	if err := r.notifier.NotifyFailure(state.opts.RunDate, runID, taskName, cause); err != nil {
		r.logger.Error("failed to send failure notification",
			zap.String("task", taskName), zap.String("run_id", runID), zap.Error(err))
	}
}
