package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidAdminPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Admin.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_NegativePort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative port")
	}
}

func TestValidate_PortClash(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = cfg.Admin.Port

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for shared port")
	}
	if !strings.Contains(err.Error(), "must differ") {
		t.Errorf("Expected port clash error, got: %v", err)
	}

	// A disabled side-car does not hold its port.
	disabled := false
	cfg.Metrics.Enabled = &disabled
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected no clash with metrics disabled, got: %v", err)
	}
}

func TestValidate_TracingProtocol(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Tracing.Protocol = "udp"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unknown tracing protocol")
	}
}

func TestValidate_SampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Tracing.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for sample rate above 1")
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"
	cfg.Admin.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	if !strings.Contains(err.Error(), "logging.format") || !strings.Contains(err.Error(), "admin.port") {
		t.Errorf("Expected both problems to be reported, got: %v", err)
	}
}
