package operations

import (
	"time"

	"olistcli/internal/config"
)

// Config holds configuration for pipeline execution
type Config struct {
	// Timeouts
	StepTimeouts   map[string]time.Duration `json:"step_timeouts"`
	DefaultTimeout time.Duration            `json:"default_timeout"`

	// Retry configuration
	RetryConfig RetryConfig `json:"retry_config"`

	// ContinueOnError keeps running steps that do not depend on a failed
	// step. The run still reports failure.
	ContinueOnError bool `json:"continue_on_error"`

	// ManifestPath is where the run manifest is written; empty disables it
	ManifestPath string `json:"manifest_path"`
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		StepTimeouts:   make(map[string]time.Duration),
		DefaultTimeout: DefaultStepTimeout,
		RetryConfig:    NewRetryConfig(),
	}
}

// ConfigFrom builds the execution configuration from application settings
func ConfigFrom(cfg *config.Config, paths *config.Paths) *Config {
	c := NewConfig()
	if cfg == nil {
		return c
	}
	if cfg.Pipeline.StepTimeout > 0 {
		c.DefaultTimeout = cfg.Pipeline.StepTimeout
	}
	c.RetryConfig.MaxAttempts = cfg.Pipeline.MaxRetries + 1
	if cfg.Pipeline.RetryBaseDelay > 0 {
		c.RetryConfig.InitialDelay = cfg.Pipeline.RetryBaseDelay
	}
	if paths != nil {
		c.ManifestPath = paths.GetReportPath(ManifestFile)
	}
	return c
}

// GetStepTimeout returns the timeout for a specific step
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok && timeout > 0 {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout sets the timeout for a specific step
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}

// retryDelay returns the wait before the given retry attempt (1-based)
func (c RetryConfig) retryDelay(attempt int) time.Duration {
	delay := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= c.Multiplier
	}
	if c.MaxDelay > 0 && time.Duration(delay) > c.MaxDelay {
		return c.MaxDelay
	}
	return time.Duration(delay)
}
