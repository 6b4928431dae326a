package telemetry

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Protocols supported by the tracing exporter.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// TracingConfig holds OpenTelemetry trace export configuration.
type TracingConfig struct {
	// Enabled indicates whether the tracing side-car is constructed.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Hostname and Port of the OTLP collector.
	Hostname string `mapstructure:"hostname" yaml:"hostname"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// Path is the URL path of the OTLP/HTTP endpoint. Ignored for gRPC.
	Path string `mapstructure:"path" yaml:"path"`

	// ServiceName is the name of the service reported to the trace backend.
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`

	// ServiceVersion is the version of the service.
	ServiceVersion string `mapstructure:"service_version" yaml:"service_version"`

	// Protocol is "grpc" or "http".
	Protocol string `mapstructure:"protocol" validate:"omitempty,oneof=grpc http" yaml:"protocol"`

	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	// 1.0 means sample all traces, 0.5 means sample 50%
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`

	// ShutdownTimeout bounds the final flush.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultTracingConfig returns a default configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:         false,
		Hostname:        "localhost",
		Port:            4317,
		Path:            "v1/traces",
		ServiceName:     "sidekick",
		ServiceVersion:  "dev",
		Protocol:        ProtocolGRPC,
		Insecure:        true,
		SampleRate:      1.0,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Endpoint returns host:port of the collector.
func (c TracingConfig) Endpoint() string {
	return net.JoinHostPort(c.Hostname, strconv.Itoa(c.Port))
}

// URL returns the full collector URL, as used for logging.
func (c TracingConfig) URL() string {
	scheme := "https"
	if c.Insecure {
		scheme = "http"
	}
	if c.Protocol == ProtocolHTTP {
		return fmt.Sprintf("%s://%s/%s", scheme, c.Endpoint(), c.Path)
	}
	return fmt.Sprintf("%s://%s", scheme, c.Endpoint())
}

// ProfilingConfig contains configuration for Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether the profiling side-car is constructed.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ServiceName is the application name shown in Pyroscope
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`

	// ServiceVersion is the application version
	ServiceVersion string `mapstructure:"service_version" yaml:"service_version"`

	// Endpoint is the Pyroscope server URL (e.g., "http://localhost:4040")
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// DefaultProfilingConfig returns a default configuration
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:        false,
		ServiceName:    "sidekick",
		ServiceVersion: "dev",
		Endpoint:       "http://localhost:4040",
		ProfileTypes:   []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space"},
	}
}
