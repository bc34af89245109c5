package config

// ResourceConfig defines configuration for process resource sampling.
type ResourceConfig struct {
	Enabled            bool `json:"enabled" yaml:"enabled"`
	SampleIntervalSecs int  `json:"sample_interval_secs,omitempty" yaml:"sample_interval_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultResourceConfig creates default resource monitor configuration
func NewDefaultResourceConfig() ResourceConfig {
	return ResourceConfig{
		Enabled:            true,
		SampleIntervalSecs: DefaultResourceSampleIntervalSecs,
	}
}
