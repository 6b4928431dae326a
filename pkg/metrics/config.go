package metrics

import "time"

// Config configures the metrics side-car and the process-level exports it
// registers.
type Config struct {
	// Enabled controls whether the metrics side-car is constructed.
	// Use a pointer to distinguish "not set" from "explicitly false".
	// Default: true
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port serving the exposition endpoint.
	// Default: 8082
	Port int `mapstructure:"port" validate:"omitempty,min=0,max=65535" yaml:"port"`

	// Path is the URL path of the exposition endpoint, without leading slash.
	// Default: metrics
	Path string `mapstructure:"path" yaml:"path"`

	// Process CPU, memory and file descriptor metrics.
	StandardExportsEnabled bool `mapstructure:"standard_exports_enabled" yaml:"standard_exports_enabled"`

	// Go runtime heap and memory class metrics.
	MemoryPoolsExportsEnabled bool `mapstructure:"memory_pools_exports_enabled" yaml:"memory_pools_exports_enabled"`

	// Go garbage collector metrics.
	GarbageCollectorExportsEnabled bool `mapstructure:"garbage_collector_exports_enabled" yaml:"garbage_collector_exports_enabled"`

	// Goroutine and scheduler metrics.
	ThreadExportsEnabled bool `mapstructure:"thread_exports_enabled" yaml:"thread_exports_enabled"`

	// One info series per module linked into the binary.
	ClassLoadingExportsEnabled bool `mapstructure:"class_loading_exports_enabled" yaml:"class_loading_exports_enabled"`

	// Build information of the main module.
	VersionInfoExportsEnabled bool `mapstructure:"version_info_exports_enabled" yaml:"version_info_exports_enabled"`

	// ShutdownTimeout bounds the drain of in-flight scrapes.
	// Default: 5s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// IsEnabled returns whether the side-car is enabled. Defaults to true.
func (c *Config) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8082
	}
	if c.Path == "" {
		c.Path = "metrics"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// ReporterConfig configures the local exposition reporter.
type ReporterConfig struct {
	// Interval between textfile refreshes. Zero disables the refresh loop;
	// the file is still written at start and stop.
	// Default: 1m
	Interval time.Duration `mapstructure:"interval" validate:"gte=0" yaml:"interval"`

	// TextfilePath, when set, receives the text exposition of the registry,
	// replaced atomically on every refresh. Suitable for node_exporter's
	// textfile collector.
	TextfilePath string `mapstructure:"textfile_path" yaml:"textfile_path"`
}
