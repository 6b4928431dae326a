package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/sidekick/internal/telemetry"
	"github.com/marmos91/sidekick/pkg/admin"
	"github.com/marmos91/sidekick/pkg/metrics"
)

// EnvPrefix prefixes every environment override, e.g. SIDEKICK_ADMIN_PORT.
const EnvPrefix = "SIDEKICK"

// Config represents the sidekick configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SIDEKICK_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// A Config is read once at startup and treated as immutable afterwards.
type Config struct {
	// ServiceName identifies the process in logs, traces and the version
	// endpoint.
	ServiceName string `mapstructure:"service_name" validate:"required" yaml:"service_name"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Admin configures the operational HTTP side-car
	Admin admin.Config `mapstructure:"admin" yaml:"admin"`

	// Metrics configures the Prometheus exposition side-car
	Metrics metrics.Config `mapstructure:"metrics" yaml:"metrics"`

	// Tracing configures the OpenTelemetry trace reporter
	Tracing telemetry.TracingConfig `mapstructure:"tracing" yaml:"tracing"`

	// Profiling configures Pyroscope continuous profiling
	Profiling telemetry.ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`

	// Reporter configures the in-process metrics reporter
	Reporter metrics.ReporterConfig `mapstructure:"reporter" yaml:"reporter"`

	// Health tunes the built-in health checks
	Health HealthConfig `mapstructure:"health" yaml:"health"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// HealthConfig tunes the thread_deadlock probe.
type HealthConfig struct {
	// DeadlockTimeout is how long the probe waits for a new goroutine to run.
	// Default: 1s
	DeadlockTimeout time.Duration `mapstructure:"deadlock_timeout" validate:"gte=0" yaml:"deadlock_timeout"`

	// MaxGoroutines marks the process unhealthy above this count. 0 disables.
	MaxGoroutines int `mapstructure:"max_goroutines" validate:"gte=0" yaml:"max_goroutines"`
}

// Load loads configuration from defaults, file and environment.
//
// A missing file is not an error: defaults and environment overrides still
// apply. The result is validated before it is returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if err := setupViper(v); err != nil {
		return nil, err
	}

	if _, err := mergeConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration, requiring the file to exist. The error
// explains how to create one.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  sidekick init\n\n"+
				"Or specify a custom config file:\n"+
				"  sidekick <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  sidekick init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper seeds v with the default configuration and enables environment
// overrides. Seeding is what makes nested keys such as admin.port visible to
// AutomaticEnv when no file sets them.
func setupViper(v *viper.Viper) error {
	// Example: SIDEKICK_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}
	return nil
}

// mergeConfigFile merges the file at configPath, or at the default location
// when empty, over the defaults. It reports whether a file was found.
func mergeConfigFile(v *viper.Viper, configPath string) (bool, error) {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false, nil
	}

	v.SetConfigFile(configPath)
	if err := v.MergeInConfig(); err != nil {
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "sidekick")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "sidekick")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
