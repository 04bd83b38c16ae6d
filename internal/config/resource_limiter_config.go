package config

// ResourceLimiterConfig defines memory back-pressure applied before each fetch
type ResourceLimiterConfig struct {
	MaxMemoryPercent    float64 `json:"max_memory_percent,omitempty" yaml:"max_memory_percent,omitempty" validate:"omitempty,min=0,max=100"`
	CheckIntervalMillis int     `json:"check_interval_ms,omitempty" yaml:"check_interval_ms,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultResourceLimiterConfig creates default resource limiter configuration
func NewDefaultResourceLimiterConfig() ResourceLimiterConfig {
	return ResourceLimiterConfig{
		MaxMemoryPercent:    0, // disabled
		CheckIntervalMillis: 500,
	}
}
