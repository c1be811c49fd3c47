package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edusight/prism/internal/models"
	"github.com/edusight/prism/internal/service"
	appErrors "github.com/edusight/prism/pkg/errors"
)

// Handoff moves large per-student outcome sets between pipeline tasks
// through Redis instead of keeping them on the heap. Small sets stay
// in-process; the offload only engages above maxItems. Keys are scoped to
// the run id so concurrent reads of historical runs never collide.
type Handoff struct {
	cache    *service.CacheService
	maxItems int
	ttl      time.Duration
	logger   *zap.Logger
}

// NewHandoff constructs a Handoff.
func NewHandoff(cache *service.CacheService, maxItems int, ttl time.Duration, logger *zap.Logger) *Handoff {
	if maxItems <= 0 {
		maxItems = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handoff{cache: cache, maxItems: maxItems, ttl: ttl, logger: logger}
}

// Offload stores the outcomes under a run-scoped key when the set exceeds
// the in-process limit. It returns the key and true when the outcomes were
// offloaded; otherwise they should stay in memory.
func (h *Handoff) Offload(ctx context.Context, runID string, outcomes []models.StudentOutcome) (string, bool) {
	if len(outcomes) <= h.maxItems || !h.cache.Enabled() {
		return "", false
	}
	key := handoffKey(runID)
	if err := h.cache.Set(ctx, key, outcomes, h.ttl); err != nil {
		h.logger.Warn("handoff offload failed, keeping outcomes in memory",
			zap.String("run_id", runID), zap.Error(err))
		return "", false
	}
	h.logger.Info("outcomes offloaded to cache",
		zap.String("run_id", runID), zap.Int("items", len(outcomes)))
	return key, true
}

// Load fetches a previously offloaded outcome set.
func (h *Handoff) Load(ctx context.Context, key string) ([]models.StudentOutcome, error) {
	var outcomes []models.StudentOutcome
	hit, err := h.cache.Get(ctx, key, &outcomes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load handoff payload")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrCacheMiss, fmt.Sprintf("handoff payload %s expired", key))
	}
	return outcomes, nil
}

// Discard drops an offloaded payload once the run no longer needs it.
func (h *Handoff) Discard(ctx context.Context, key string) {
	if key == "" || !h.cache.Enabled() {
		return
	}
	if err := h.cache.Invalidate(ctx, key); err != nil {
		h.logger.Warn("failed to discard handoff payload", zap.String("key", key), zap.Error(err))
	}
}

func handoffKey(runID string) string {
	return "pipeline:handoff:" + runID
}
