package config

// StorageConfig defines configuration for the site/update store.
type StorageConfig struct {
	DatabasePath    string `json:"database_path,omitempty" yaml:"database_path,omitempty" validate:"required"`
	UpdateCacheSize int    `json:"update_cache_size,omitempty" yaml:"update_cache_size,omitempty" validate:"omitempty,min=1"`
	ArchiveDir      string `json:"archive_dir,omitempty" yaml:"archive_dir,omitempty"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DatabasePath:    DefaultDatabasePath,
		UpdateCacheSize: DefaultUpdateCacheSize,
		ArchiveDir:      DefaultArchiveDir,
	}
}
