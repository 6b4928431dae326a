package admin

import "time"

// Config configures the admin side-car.
//
// When Enabled is false the side-car is never constructed.
type Config struct {
	// Enabled controls whether the admin side-car is started.
	// Use a pointer to distinguish "not set" from "explicitly false".
	// Default: true
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the admin endpoints.
	// Default: 8092
	Port int `mapstructure:"port" validate:"omitempty,min=0,max=65535" yaml:"port"`

	// Endpoint paths, without leading slash.
	PingPath        string `mapstructure:"ping_path" yaml:"ping_path"`
	VersionPath     string `mapstructure:"version_path" yaml:"version_path"`
	HealthCheckPath string `mapstructure:"health_check_path" yaml:"health_check_path"`
	ThreadDumpPath  string `mapstructure:"thread_dump_path" yaml:"thread_dump_path"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout bounds the drain of in-flight requests on stop.
	// Default: 5s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// IsEnabled returns whether the admin side-car is enabled.
// Defaults to true if not explicitly set.
func (c *Config) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8092
	}
	if c.PingPath == "" {
		c.PingPath = "ping"
	}
	if c.VersionPath == "" {
		c.VersionPath = "version"
	}
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = "healthcheck"
	}
	if c.ThreadDumpPath == "" {
		c.ThreadDumpPath = "threaddump"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}
