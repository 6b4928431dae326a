package config

import (
	"strings"
	"time"

	"github.com/marmos91/sidekick/internal/telemetry"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
// Boolean export toggles are not touched here since false is a meaningful
// value; their defaults come from GetDefaultConfig via Load.
func ApplyDefaults(cfg *Config) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "sidekick"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	applyLoggingDefaults(&cfg.Logging)
	cfg.Admin.ApplyDefaults()
	cfg.Metrics.ApplyDefaults()
	applyTracingDefaults(&cfg.Tracing, cfg.ServiceName)
	applyProfilingDefaults(&cfg.Profiling, cfg.ServiceName)
	applyHealthDefaults(&cfg.Health)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTracingDefaults(cfg *telemetry.TracingConfig, serviceName string) {
	d := telemetry.DefaultTracingConfig()
	if cfg.Hostname == "" {
		cfg.Hostname = d.Hostname
	}
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	if cfg.Path == "" {
		cfg.Path = d.Path
	}
	cfg.Path = strings.TrimPrefix(cfg.Path, "/")
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = d.ServiceVersion
	}
	if cfg.Protocol == "" {
		cfg.Protocol = d.Protocol
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = d.ShutdownTimeout
	}
}

func applyProfilingDefaults(cfg *telemetry.ProfilingConfig, serviceName string) {
	d := telemetry.DefaultProfilingConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = d.Endpoint
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = d.ServiceVersion
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = d.ProfileTypes
	}
}

func applyHealthDefaults(cfg *HealthConfig) {
	if cfg.DeadlockTimeout == 0 {
		cfg.DeadlockTimeout = time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Seeding the loader so environment overrides work without a file
//   - Testing
func GetDefaultConfig() *Config {
	enabled := true
	cfg := &Config{
		Tracing:   telemetry.DefaultTracingConfig(),
		Profiling: telemetry.DefaultProfilingConfig(),
	}
	cfg.Admin.Enabled = &enabled
	metricsEnabled := true
	cfg.Metrics.Enabled = &metricsEnabled
	cfg.Metrics.StandardExportsEnabled = true
	cfg.Metrics.MemoryPoolsExportsEnabled = true
	cfg.Metrics.GarbageCollectorExportsEnabled = true
	cfg.Metrics.ThreadExportsEnabled = true
	cfg.Metrics.ClassLoadingExportsEnabled = false
	cfg.Metrics.VersionInfoExportsEnabled = true
	cfg.Reporter.Interval = time.Minute

	ApplyDefaults(cfg)
	return cfg
}
