package rslimiter

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/sitewatch/internal/config"
)

func TestResourceMonitor_New(t *testing.T) {
	logger := zerolog.Nop()
	cfg := config.NewDefaultResourceConfig()
	rm := NewResourceMonitor(cfg, logger)

	require.NotNil(t, rm)
	assert.Equal(t, cfg.SampleIntervalSecs, rm.cfg.SampleIntervalSecs)
	assert.True(t, rm.cfg.Enabled)
}

func TestResourceMonitor_NewFixesInvalidInterval(t *testing.T) {
	cfg := config.NewDefaultResourceConfig()
	cfg.SampleIntervalSecs = 0
	rm := NewResourceMonitor(cfg, zerolog.Nop())

	assert.Equal(t, config.DefaultResourceSampleIntervalSecs, rm.cfg.SampleIntervalSecs)
}

func TestResourceMonitor_StartAndStop(t *testing.T) {
	rm := NewResourceMonitor(config.NewDefaultResourceConfig(), zerolog.Nop())

	rm.Start()
	rm.mu.RLock()
	running := rm.isRunning
	rm.mu.RUnlock()
	assert.True(t, running, "ResourceMonitor should be running after Start()")

	rm.Stop()
	rm.mu.RLock()
	running = rm.isRunning
	rm.mu.RUnlock()
	assert.False(t, running, "ResourceMonitor should be stopped after Stop()")
}

func TestResourceMonitor_DisabledDoesNotStart(t *testing.T) {
	cfg := config.NewDefaultResourceConfig()
	cfg.Enabled = false
	rm := NewResourceMonitor(cfg, zerolog.Nop())

	rm.Start()
	rm.mu.RLock()
	running := rm.isRunning
	rm.mu.RUnlock()
	assert.False(t, running, "Disabled monitor should not start the sampling loop")

	// Disabled monitors still serve snapshots on demand.
	usage := rm.Snapshot()
	assert.NotZero(t, usage.Goroutines)
}

func TestResourceMonitor_SnapshotCachesSample(t *testing.T) {
	rm := NewResourceMonitor(config.NewDefaultResourceConfig(), zerolog.Nop())

	first := rm.Snapshot()
	assert.NotZero(t, first.Goroutines)

	rm.mu.RLock()
	sampledAt := rm.sampledAt
	rm.mu.RUnlock()
	assert.False(t, sampledAt.IsZero(), "Snapshot should record the sample time")

	second := rm.Snapshot()
	assert.Equal(t, first, second, "Second snapshot should return the cached sample")

	rm.mu.RLock()
	cachedAt := rm.sampledAt
	rm.mu.RUnlock()
	assert.Equal(t, sampledAt, cachedAt)
}

func TestResourceMonitor_StartRunsInitialSample(t *testing.T) {
	rm := NewResourceMonitor(config.NewDefaultResourceConfig(), zerolog.Nop())

	rm.Start()
	defer rm.Stop()

	require.Eventually(t, func() bool {
		rm.mu.RLock()
		defer rm.mu.RUnlock()
		return !rm.sampledAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetResourceUsage(t *testing.T) {
	usage := GetResourceUsage()

	assert.NotZero(t, usage.SysMB, "System memory should be reported")
	assert.NotZero(t, usage.Goroutines, "Goroutine count should be reported")
}
