package config

import "time"

// Config is the root configuration structure for stathive. It contains
// all configuration sections for the shared counter registry, the
// exporter HTTP server, and telemetry settings.
type Config struct {
	// Registry contains shared region configuration: the region file
	// path and the admission limit.
	Registry RegistryConfig `yaml:"registry"`

	// Server contains HTTP server configuration for the exporter
	// endpoint including listen address and timeouts.
	Server ServerConfig `yaml:"server"`

	// Exporter contains Prometheus exposition configuration.
	Exporter ExporterConfig `yaml:"exporter"`

	// Telemetry contains observability configuration for stathive's
	// own logging.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RegistryConfig contains configuration for the shared counter registry.
type RegistryConfig struct {
	// Path is the filesystem path of the region file. Processes that
	// share counters must use the same path. Placing it on a tmpfs
	// (e.g. /dev/shm) keeps the region memory-resident.
	// Default: "/dev/shm/stathive.region"
	Path string `yaml:"path"`

	// MaxEntries is the admission limit: the maximum number of distinct
	// metric names. Fixed at region creation; minimum 10.
	// Default: 50
	MaxEntries int `yaml:"max_entries"`
}

// ServerConfig contains configuration for the exporter HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:9821", "0.0.0.0:9821").
	// Default: "127.0.0.1:9821"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire
	// request. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. Scrapes of very large registries must fit in it.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight scrapes are abandoned.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ExporterConfig contains configuration for Prometheus exposition of
// registry counters.
type ExporterConfig struct {
	// MetricsPath is the HTTP path the exposition is served on.
	// Default: "/metrics"
	MetricsPath string `yaml:"metrics_path"`

	// Namespace is prepended to the exporter's self-metrics (entry
	// count, capacity). Registry counter names are exported as-is,
	// sanitized to the Prometheus character set.
	// Default: "stathive"
	Namespace string `yaml:"namespace"`

	// UsageReportSchedule is a cron expression (or @every duration)
	// controlling how often registry usage is logged and near-capacity
	// warnings are raised. Empty disables the report.
	// Default: "@every 47s"
	UsageReportSchedule string `yaml:"usage_report_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`
}
