package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_PartialFile(t *testing.T) {
	path := writeConfig(t, `
service_name: billing
logging:
  level: "debug"
admin:
  port: 9001
  ping_path: alive
metrics:
  enabled: false
  thread_exports_enabled: false
reporter:
  interval: 15s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ServiceName != "billing" {
		t.Errorf("Expected service name 'billing', got %q", cfg.ServiceName)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Admin.Port != 9001 || cfg.Admin.PingPath != "alive" {
		t.Errorf("Expected admin overrides, got port=%d ping=%q", cfg.Admin.Port, cfg.Admin.PingPath)
	}
	if cfg.Admin.VersionPath != "version" {
		t.Errorf("Expected default version path, got %q", cfg.Admin.VersionPath)
	}
	if cfg.Metrics.IsEnabled() {
		t.Error("Expected metrics to be disabled")
	}
	if cfg.Metrics.ThreadExportsEnabled {
		t.Error("Expected thread exports to be disabled")
	}
	if !cfg.Metrics.GarbageCollectorExportsEnabled {
		t.Error("Expected GC exports to keep their default")
	}
	if cfg.Reporter.Interval != 15*time.Second {
		t.Errorf("Expected reporter interval 15s, got %v", cfg.Reporter.Interval)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.Admin.Port != 8092 {
		t.Errorf("Expected default admin port 8092, got %d", cfg.Admin.Port)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SIDEKICK_ADMIN_PORT", "9999")
	t.Setenv("SIDEKICK_TRACING_ENABLED", "true")
	t.Setenv("SIDEKICK_PROFILING_PROFILE_TYPES", "cpu,goroutines")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Admin.Port != 9999 {
		t.Errorf("Expected admin port from env 9999, got %d", cfg.Admin.Port)
	}
	if !cfg.Tracing.Enabled {
		t.Error("Expected tracing to be enabled from env")
	}
	if len(cfg.Profiling.ProfileTypes) != 2 {
		t.Errorf("Expected 2 profile types from env, got %v", cfg.Profiling.ProfileTypes)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "logging:\n  format: xml\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Expected validation error")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "admin: [unterminated\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.ServiceName = "roundtrip"
	cfg.Reporter.TextfilePath = "/var/lib/node_exporter/sidekick.prom"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if loaded.ServiceName != "roundtrip" {
		t.Errorf("Expected service name 'roundtrip', got %q", loaded.ServiceName)
	}
	if loaded.Reporter.TextfilePath != cfg.Reporter.TextfilePath {
		t.Errorf("Expected textfile path to survive, got %q", loaded.Reporter.TextfilePath)
	}
	if loaded.ShutdownTimeout != cfg.ShutdownTimeout {
		t.Errorf("Expected shutdown timeout %v, got %v", cfg.ShutdownTimeout, loaded.ShutdownTimeout)
	}
}
