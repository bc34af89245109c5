package config

// APIConfig defines configuration for the HTTP API server.
type APIConfig struct {
	Port                 int `json:"port,omitempty" yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	SubscriberBufferSize int `json:"subscriber_buffer_size,omitempty" yaml:"subscriber_buffer_size,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultAPIConfig creates default API configuration
func NewDefaultAPIConfig() APIConfig {
	return APIConfig{
		Port:                 DefaultAPIPort,
		SubscriberBufferSize: DefaultSubscriberBufferSize,
	}
}
