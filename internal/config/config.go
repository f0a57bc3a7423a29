// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and GWRANK_ env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file holding the rankings table.
	DBPath string `koanf:"db_path"`

	// BusyTimeoutMS bounds how long SQLite waits on a locked database.
	BusyTimeoutMS int `koanf:"busy_timeout_ms"`

	// SnapshotDir receives the point-in-time copy taken before each batch commit.
	// Empty means next to DBPath.
	SnapshotDir string `koanf:"snapshot_dir"`

	// SnapshotS3Bucket enables offsite upload of snapshots when set.
	SnapshotS3Bucket   string `koanf:"snapshot_s3_bucket"`
	SnapshotS3Prefix   string `koanf:"snapshot_s3_prefix"`
	SnapshotS3Endpoint string `koanf:"snapshot_s3_endpoint"`
	SnapshotS3Region   string `koanf:"snapshot_s3_region"`

	// Static S3 credentials. When empty the default AWS credential chain is used.
	SnapshotS3AccessKeyID     string `koanf:"snapshot_s3_access_key_id"`
	SnapshotS3SecretAccessKey string `koanf:"snapshot_s3_secret_access_key"`

	// SearchCacheSize caps the number of cached search terms; 0 disables the cache.
	SearchCacheSize int `koanf:"search_cache_size"`

	// SearchCacheTTLSeconds expires cached searches even without ingestion.
	SearchCacheTTLSeconds int `koanf:"search_cache_ttl_seconds"`

	// MaxUploadBytes caps the request body of upload calls.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// StatsSchedule is the cron spec for refreshing dataset and system gauges.
	StatsSchedule string `koanf:"stats_schedule"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DBPath:                "gbf-gw.sqlite",
		BusyTimeoutMS:         5000,
		SnapshotDir:           "",
		SnapshotS3Prefix:      "snapshots/",
		SnapshotS3Region:      "auto",
		SearchCacheSize:       1024,
		SearchCacheTTLSeconds: 300,
		MaxUploadBytes:        8 << 20,
		StatsSchedule:         "@every 15s",
	}
}

// SearchCacheTTL returns the cache TTL as a duration.
func (c *Config) SearchCacheTTL() time.Duration {
	return time.Duration(c.SearchCacheTTLSeconds) * time.Second
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.BusyTimeoutMS < 0:
		return fmt.Errorf("%w: busy_timeout_ms must not be negative", ErrInvalidConfig)
	case c.SearchCacheSize < 0:
		return fmt.Errorf("%w: search_cache_size must not be negative", ErrInvalidConfig)
	case c.SearchCacheTTLSeconds < 0:
		return fmt.Errorf("%w: search_cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case (c.SnapshotS3AccessKeyID == "") != (c.SnapshotS3SecretAccessKey == ""):
		return fmt.Errorf("%w: snapshot_s3_access_key_id and snapshot_s3_secret_access_key must be set together", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}
