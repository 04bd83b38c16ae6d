// Package rslimiter applies memory back-pressure before resources are fetched.
package rslimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemorySampler returns the system memory usage in percent.
type MemorySampler func() (float64, error)

// SystemMemoryPercent reads the used percentage of system memory.
func SystemMemoryPercent() (float64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to get system memory stats: %w", err)
	}
	return vmStat.UsedPercent, nil
}

// ResourceLimiter blocks callers while system memory usage is above the
// configured threshold.
type ResourceLimiter struct {
	maxMemoryPercent float64
	checkInterval    time.Duration
	sample           MemorySampler
	logger           zerolog.Logger
}

// NewResourceLimiter creates a limiter from resource_limiter_config.
func NewResourceLimiter(cfg config.ResourceLimiterConfig, logger zerolog.Logger) *ResourceLimiter {
	interval := time.Duration(cfg.CheckIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ResourceLimiter{
		maxMemoryPercent: cfg.MaxMemoryPercent,
		checkInterval:    interval,
		sample:           SystemMemoryPercent,
		logger:           logger.With().Str("component", "ResourceLimiter").Logger(),
	}
}

// WithSampler replaces the memory sampler.
func (rl *ResourceLimiter) WithSampler(sample MemorySampler) *ResourceLimiter {
	rl.sample = sample
	return rl
}

// Enabled reports whether a memory threshold is configured.
func (rl *ResourceLimiter) Enabled() bool {
	return rl != nil && rl.maxMemoryPercent > 0
}

// Wait returns once memory usage is at or below the threshold, or with ctx's
// error. A failing sampler never blocks.
func (rl *ResourceLimiter) Wait(ctx context.Context) error {
	if !rl.Enabled() {
		return ctx.Err()
	}

	ticker := time.NewTicker(rl.checkInterval)
	defer ticker.Stop()

	warned := false
	for {
		used, err := rl.sample()
		if err != nil {
			rl.logger.Debug().Err(err).Msg("Memory sample failed, not waiting")
			return ctx.Err()
		}
		if used <= rl.maxMemoryPercent {
			if warned {
				rl.logger.Info().Float64("used_percent", used).Msg("Memory usage back under threshold, resuming")
			}
			return ctx.Err()
		}
		if !warned {
			rl.logger.Warn().
				Float64("used_percent", used).
				Float64("threshold_percent", rl.maxMemoryPercent).
				Msg("System memory usage above threshold, pausing fetches")
			warned = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LogUsage writes the current resource usage at info level.
func (rl *ResourceLimiter) LogUsage() {
	usage := GetResourceUsage()
	rl.logger.Info().
		Int64("alloc_mb", usage.AllocMB).
		Int64("sys_mb", usage.SysMB).
		Int("goroutines", usage.Goroutines).
		Int64("gc_count", usage.GCCount).
		Int64("system_mem_used_mb", usage.SystemMemUsedMB).
		Int64("system_mem_total_mb", usage.SystemMemTotalMB).
		Float64("system_mem_percent", usage.SystemMemUsedPercent).
		Msg("Resource usage")
}
