package config

import (
	"time"
)

// MonitorConfig defines configuration for the monitoring pass and the fingerprint store
type MonitorConfig struct {
	StorePath            string `json:"store_path,omitempty" yaml:"store_path,omitempty" validate:"required"`
	MaxConcurrentChecks  int    `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"omitempty,min=1"`
	IncrementalPersist   bool   `json:"incremental_persist" yaml:"incremental_persist"`
	OnCorruptStore       string `json:"on_corrupt_store,omitempty" yaml:"on_corrupt_store,omitempty" validate:"omitempty,corruptpolicy"`
	CheckIntervalSeconds int    `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"omitempty,min=1"`
	MaxCycles            int    `json:"max_cycles,omitempty" yaml:"max_cycles,omitempty" validate:"omitempty,min=0"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		StorePath:            DefaultMonitorStorePath,
		MaxConcurrentChecks:  DefaultMonitorMaxConcurrentChecks,
		IncrementalPersist:   false,
		OnCorruptStore:       DefaultMonitorOnCorruptStore,
		CheckIntervalSeconds: DefaultMonitorCheckIntervalSeconds,
		MaxCycles:            0, // 0 means run indefinitely
	}
}

// CheckInterval returns the watch interval, falling back to the default for unset values.
func (mc MonitorConfig) CheckInterval() time.Duration {
	if mc.CheckIntervalSeconds <= 0 {
		return time.Duration(DefaultMonitorCheckIntervalSeconds) * time.Second
	}
	return time.Duration(mc.CheckIntervalSeconds) * time.Second
}
