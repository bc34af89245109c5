package rslimiter

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aleister1102/sitewatch/internal/config"
)

// ResourceMonitor periodically samples process and system resource usage
// and logs it. The latest sample is kept for the system status endpoint.
type ResourceMonitor struct {
	cfg    config.ResourceConfig
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	isRunning bool
	latest    ResourceUsage
	sampledAt time.Time
}

// NewResourceMonitor creates a new resource monitor.
func NewResourceMonitor(cfg config.ResourceConfig, logger zerolog.Logger) *ResourceMonitor {
	if cfg.SampleIntervalSecs <= 0 {
		cfg.SampleIntervalSecs = config.DefaultResourceSampleIntervalSecs
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ResourceMonitor{
		cfg:    cfg,
		logger: logger.With().Str("component", "ResourceMonitor").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the sampling loop. Disabled monitors still serve
// on-demand snapshots.
func (rm *ResourceMonitor) Start() {
	if !rm.cfg.Enabled {
		rm.logger.Debug().Msg("Resource monitor disabled")
		return
	}

	rm.mu.Lock()
	if rm.isRunning {
		rm.mu.Unlock()
		return
	}
	rm.isRunning = true
	rm.mu.Unlock()

	rm.wg.Add(1)
	go rm.sampleLoop()

	rm.logger.Info().
		Int("sample_interval_secs", rm.cfg.SampleIntervalSecs).
		Msg("Resource monitor started")
}

// Stop stops the sampling loop.
func (rm *ResourceMonitor) Stop() {
	rm.mu.Lock()
	if !rm.isRunning {
		rm.mu.Unlock()
		return
	}
	rm.isRunning = false
	rm.mu.Unlock()

	rm.cancel()
	rm.wg.Wait()
	rm.logger.Info().Msg("Resource monitor stopped")
}

// Snapshot returns the most recent sample, taking a fresh one when none
// exists yet or the loop is not running.
func (rm *ResourceMonitor) Snapshot() ResourceUsage {
	rm.mu.RLock()
	latest, sampledAt := rm.latest, rm.sampledAt
	rm.mu.RUnlock()

	if sampledAt.IsZero() {
		return rm.sample()
	}

	return latest
}

func (rm *ResourceMonitor) sampleLoop() {
	defer rm.wg.Done()

	ticker := time.NewTicker(time.Duration(rm.cfg.SampleIntervalSecs) * time.Second)
	defer ticker.Stop()

	rm.sample()

	for {
		select {
		case <-rm.ctx.Done():
			return
		case <-ticker.C:
			usage := rm.sample()
			rm.logger.Debug().
				Int64("alloc_mb", usage.AllocMB).
				Int64("sys_mb", usage.SysMB).
				Int("goroutines", usage.Goroutines).
				Float64("system_mem_used_percent", usage.SystemMemUsedPercent).
				Float64("cpu_usage_percent", usage.CPUUsagePercent).
				Msg("Resource usage sample")
		}
	}
}

func (rm *ResourceMonitor) sample() ResourceUsage {
	usage := GetResourceUsage()

	rm.mu.Lock()
	rm.latest = usage
	rm.sampledAt = time.Now()
	rm.mu.Unlock()

	return usage
}
