package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/sitewatch/internal/common"
	"gopkg.in/yaml.v3"
)

const (
	// Storage Defaults
	DefaultDatabasePath    = "sitewatch.db"
	DefaultUpdateCacheSize = 5
	DefaultArchiveDir      = ""

	// Monitor Defaults
	DefaultIntervalSecs        = 1
	DefaultIntervalJitterMaxMs = 1500
	DefaultHTTPTimeoutSecs     = 10
	DefaultMaxContentSize      = 5242880 // 5MB
	DefaultRequestsPerSecond   = 8
	MinIntervalSecs            = 1
	MaxIntervalSecs            = 3000

	// API Defaults
	DefaultAPIPort              = 8080
	DefaultSubscriberBufferSize = 64

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 10
	DefaultMaxLogBackups = 3

	// Resource Monitor Defaults
	DefaultResourceSampleIntervalSecs = 60
)

// SitewatchConfig is the root configuration aggregating all component sections.
type SitewatchConfig struct {
	StorageConfig  StorageConfig  `json:"storage,omitempty" yaml:"storage,omitempty"`
	MonitorConfig  MonitorConfig  `json:"monitor,omitempty" yaml:"monitor,omitempty"`
	APIConfig      APIConfig      `json:"api,omitempty" yaml:"api,omitempty"`
	LogConfig      LogConfig      `json:"log,omitempty" yaml:"log,omitempty"`
	ResourceConfig ResourceConfig `json:"resource,omitempty" yaml:"resource,omitempty"`
}

// NewDefaultSitewatchConfig creates a config populated with all defaults.
func NewDefaultSitewatchConfig() *SitewatchConfig {
	return &SitewatchConfig{
		StorageConfig:  NewDefaultStorageConfig(),
		MonitorConfig:  NewDefaultMonitorConfig(),
		APIConfig:      NewDefaultAPIConfig(),
		LogConfig:      NewDefaultLogConfig(),
		ResourceConfig: NewDefaultResourceConfig(),
	}
}

// LoadSitewatchConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON
// and YAML formats. YAML is preferred if the file extension is .yaml or .yml.
// An explicitly provided path must exist; when no config file is found
// otherwise, the defaults are returned as-is.
func LoadSitewatchConfig(providedPath string) (*SitewatchConfig, error) {
	cfg := NewDefaultSitewatchConfig()

	if providedPath != "" {
		if _, err := os.Stat(providedPath); err != nil {
			return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
	}

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read config file '%s'", filePath)
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	return cfg, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *SitewatchConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// parseYAMLConfig parses YAML configuration
func parseYAMLConfig(data []byte, filePath string, cfg *SitewatchConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

// parseJSONConfig parses JSON configuration
func parseJSONConfig(data []byte, filePath string, cfg *SitewatchConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
