package config

// SiteSeed describes one site loaded into the store on first start.
type SiteSeed struct {
	URL          string `json:"url" yaml:"url" validate:"required,url"`
	IntervalSecs int    `json:"interval_secs,omitempty" yaml:"interval_secs,omitempty" validate:"omitempty,min=1,max=3000"`
	Style        string `json:"style,omitempty" yaml:"style,omitempty" validate:"omitempty,checkstyle"`
}

// MonitorConfig defines configuration for the polling engine.
type MonitorConfig struct {
	DefaultIntervalSecs int        `json:"default_interval_secs,omitempty" yaml:"default_interval_secs,omitempty" validate:"omitempty,min=1,max=3000"`
	IntervalJitterMaxMs int        `json:"interval_jitter_max_ms,omitempty" yaml:"interval_jitter_max_ms,omitempty" validate:"omitempty,min=0"`
	HTTPTimeoutSecs     int        `json:"http_timeout_secs,omitempty" yaml:"http_timeout_secs,omitempty" validate:"omitempty,min=1"`
	MaxContentSize      int        `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1024"` // Max content size in bytes
	RequestsPerSecond   int        `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" validate:"omitempty,min=1"`
	InitialSites        []SiteSeed `json:"initial_sites,omitempty" yaml:"initial_sites,omitempty" validate:"omitempty,dive"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		DefaultIntervalSecs: DefaultIntervalSecs,
		IntervalJitterMaxMs: DefaultIntervalJitterMaxMs,
		HTTPTimeoutSecs:     DefaultHTTPTimeoutSecs,
		MaxContentSize:      DefaultMaxContentSize,
		RequestsPerSecond:   DefaultRequestsPerSecond,
		InitialSites:        []SiteSeed{},
	}
}
