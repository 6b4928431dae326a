package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and cross-field constraints. All problems are
// reported in a single error.
func Validate(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if cfg.Admin.IsEnabled() && cfg.Metrics.IsEnabled() &&
		cfg.Admin.Port != 0 && cfg.Admin.Port == cfg.Metrics.Port {
		problems = append(problems, fmt.Sprintf("admin.port and metrics.port must differ (both %d)", cfg.Admin.Port))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Hostname == "" {
		problems = append(problems, "tracing.hostname is required when tracing is enabled")
	}

	if cfg.Profiling.Enabled && cfg.Profiling.Endpoint == "" {
		problems = append(problems, "profiling.endpoint is required when profiling is enabled")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %q (%s), got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s: failed %q, got %v", field, fe.Tag(), fe.Value())
}
