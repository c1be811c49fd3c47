package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	appErrors "github.com/edusight/prism/pkg/errors"
)

// StorePinger is the slice of a database client the health probe needs.
type StorePinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker verifies the run preconditions: every store answers a ping,
// the data directory has disk headroom and the process heap is not already
// saturated. A failed precondition aborts the run before any score is
// touched.
type HealthChecker struct {
	stores       map[string]StorePinger
	dataDir      string
	minDiskBytes uint64
	maxHeapBytes uint64
	logger       *zap.Logger

	statfs  func(path string, st *unix.Statfs_t) error
	readMem func(m *runtime.MemStats)
}

// NewHealthChecker constructs a HealthChecker over the named stores.
func NewHealthChecker(stores map[string]StorePinger, dataDir string, minDiskBytes, maxHeapBytes uint64, logger *zap.Logger) *HealthChecker {
	if dataDir == "" {
		dataDir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthChecker{
		stores:       stores,
		dataDir:      dataDir,
		minDiskBytes: minDiskBytes,
		maxHeapBytes: maxHeapBytes,
		logger:       logger,
		statfs:       unix.Statfs,
		readMem:      runtime.ReadMemStats,
	}
}

// Check runs all precondition probes and returns the first failure.
func (h *HealthChecker) Check(ctx context.Context) error {
	for name, store := range h.stores {
		if store == nil {
			continue
		}
		if err := store.PingContext(ctx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrHealthCheck.Code, appErrors.ErrHealthCheck.Status,
				fmt.Sprintf("store %s unreachable", name))
		}
	}

	if h.minDiskBytes > 0 {
		var st unix.Statfs_t
		if err := h.statfs(h.dataDir, &st); err != nil {
			return appErrors.Wrap(err, appErrors.ErrHealthCheck.Code, appErrors.ErrHealthCheck.Status,
				fmt.Sprintf("failed to stat %s", h.dataDir))
		}
		free := st.Bavail * uint64(st.Bsize)
		if free < h.minDiskBytes {
			return appErrors.Clone(appErrors.ErrHealthCheck,
				fmt.Sprintf("insufficient disk space: %d bytes free, %d required", free, h.minDiskBytes))
		}
	}

	if h.maxHeapBytes > 0 {
		var mem runtime.MemStats
		h.readMem(&mem)
		if mem.HeapAlloc > h.maxHeapBytes {
			return appErrors.Clone(appErrors.ErrHealthCheck,
				fmt.Sprintf("heap usage %d bytes exceeds limit %d", mem.HeapAlloc, h.maxHeapBytes))
		}
	}

	h.logger.Debug("health check passed", zap.String("data_dir", h.dataDir))
	return nil
}
