package config

import "time"

// FetchConfig defines how monitored resources are retrieved
type FetchConfig struct {
	Transport          string `json:"transport,omitempty" yaml:"transport,omitempty" validate:"omitempty,transport"`
	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	TimeoutSeconds     int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxContentSize     int    `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"` // bytes
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Proxy              string `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	EnableHTTP2        bool   `json:"enable_http2" yaml:"enable_http2"`
	FollowRedirects    bool   `json:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects       int    `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"omitempty,min=0"`
	RespectRobotsTxt   bool   `json:"respect_robots_txt" yaml:"respect_robots_txt"`

	MaxRetries        int   `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"omitempty,min=0"`
	RetryBaseDelayMs  int   `json:"retry_base_delay_ms,omitempty" yaml:"retry_base_delay_ms,omitempty" validate:"omitempty,min=0"`
	RetryMaxDelayMs   int   `json:"retry_max_delay_ms,omitempty" yaml:"retry_max_delay_ms,omitempty" validate:"omitempty,min=0"`
	RetryStatusCodes  []int `json:"retry_status_codes,omitempty" yaml:"retry_status_codes,omitempty"`
	RetryEnableJitter bool  `json:"retry_enable_jitter" yaml:"retry_enable_jitter"`
}

// NewDefaultFetchConfig creates default fetch configuration
func NewDefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Transport:          DefaultFetchTransport,
		UserAgent:          DefaultFetchUserAgent,
		TimeoutSeconds:     DefaultFetchTimeoutSeconds,
		MaxContentSize:     DefaultFetchMaxContentSize,
		InsecureSkipVerify: false,
		EnableHTTP2:        true,
		FollowRedirects:    true,
		MaxRedirects:       DefaultFetchMaxRedirects,
		RespectRobotsTxt:   false,
		MaxRetries:         DefaultFetchMaxRetries,
		RetryBaseDelayMs:   DefaultFetchRetryBaseDelay,
		RetryMaxDelayMs:    DefaultFetchRetryMaxDelay,
		RetryStatusCodes:   []int{429, 502, 503, 504},
		RetryEnableJitter:  true,
	}
}

// Timeout returns the per-request timeout.
func (fc FetchConfig) Timeout() time.Duration {
	if fc.TimeoutSeconds <= 0 {
		return time.Duration(DefaultFetchTimeoutSeconds) * time.Second
	}
	return time.Duration(fc.TimeoutSeconds) * time.Second
}

// BrowserConfig defines configuration for the headless browser transport
type BrowserConfig struct {
	ChromePath         string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	UserDataDir        string `json:"user_data_dir,omitempty" yaml:"user_data_dir,omitempty"`
	PageTimeoutSeconds int    `json:"page_timeout_seconds,omitempty" yaml:"page_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	WaitForIdle        bool   `json:"wait_for_idle" yaml:"wait_for_idle"`
	DisableImages      bool   `json:"disable_images" yaml:"disable_images"`
}

// NewDefaultBrowserConfig creates default headless browser configuration
func NewDefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		PageTimeoutSeconds: DefaultBrowserPageTimeoutSeconds,
		WaitForIdle:        true,
		DisableImages:      true,
	}
}

// PageTimeout returns the navigation timeout for one page.
func (bc BrowserConfig) PageTimeout() time.Duration {
	if bc.PageTimeoutSeconds <= 0 {
		return time.Duration(DefaultBrowserPageTimeoutSeconds) * time.Second
	}
	return time.Duration(bc.PageTimeoutSeconds) * time.Second
}
