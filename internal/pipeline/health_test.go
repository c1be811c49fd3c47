package pipeline

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	appErrors "github.com/edusight/prism/pkg/errors"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(ctx context.Context) error { return f.err }

func newTestHealthChecker(stores map[string]StorePinger, minDisk, maxHeap uint64) *HealthChecker {
	h := NewHealthChecker(stores, ".", minDisk, maxHeap, nil)
	h.statfs = func(path string, st *unix.Statfs_t) error {
		st.Bavail = 1 << 30
		st.Bsize = 1
		return nil
	}
	h.readMem = func(m *runtime.MemStats) {
		m.HeapAlloc = 64 << 20
	}
	return h
}

func TestHealthCheckPasses(t *testing.T) {
	h := newTestHealthChecker(map[string]StorePinger{"default": &fakePinger{}}, 512<<20, 2<<30)
	assert.NoError(t, h.Check(context.Background()))
}

func TestHealthCheckFailsOnUnreachableStore(t *testing.T) {
	h := newTestHealthChecker(map[string]StorePinger{
		"default":   &fakePinger{},
		"analytics": &fakePinger{err: errors.New("connection refused")},
	}, 0, 0)

	err := h.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHealthCheck.Code, appErrors.FromError(err).Code)
}

func TestHealthCheckFailsOnLowDisk(t *testing.T) {
	h := newTestHealthChecker(map[string]StorePinger{"default": &fakePinger{}}, 512<<20, 0)
	h.statfs = func(path string, st *unix.Statfs_t) error {
		st.Bavail = 1024
		st.Bsize = 1
		return nil
	}

	err := h.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHealthCheck.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "insufficient disk space")
}

func TestHealthCheckFailsOnHeapPressure(t *testing.T) {
	h := newTestHealthChecker(map[string]StorePinger{"default": &fakePinger{}}, 0, 1<<20)
	h.readMem = func(m *runtime.MemStats) {
		m.HeapAlloc = 8 << 20
	}

	err := h.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heap usage")
}

func TestHealthCheckSkipsDisabledProbes(t *testing.T) {
	h := NewHealthChecker(nil, "", 0, 0, nil)
	assert.NoError(t, h.Check(context.Background()))
}
