package config

import "time"

// Default values for configuration fields.
const (
	// Registry defaults. The minimum entry limit mirrors the registry's
	// bootstrap range check.
	DefaultRegistryPath = "/dev/shm/stathive.region"
	DefaultMaxEntries   = 50
	MinMaxEntries       = 10

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9821"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// Exporter defaults
	DefaultMetricsPath         = "/metrics"
	DefaultNamespace           = "stathive"
	DefaultUsageReportSchedule = "@every 47s"

	// Telemetry defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills in default values for any configuration fields
// that are not explicitly set. It modifies the configuration in place.
func ApplyDefaults(cfg *Config) {
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = DefaultRegistryPath
	}
	if cfg.Registry.MaxEntries == 0 {
		cfg.Registry.MaxEntries = DefaultMaxEntries
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Exporter.MetricsPath == "" {
		cfg.Exporter.MetricsPath = DefaultMetricsPath
	}
	if cfg.Exporter.Namespace == "" {
		cfg.Exporter.Namespace = DefaultNamespace
	}
	if cfg.Exporter.UsageReportSchedule == "" {
		cfg.Exporter.UsageReportSchedule = DefaultUsageReportSchedule
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
}

// DefaultConfig returns a configuration populated entirely with default
// values.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
