// Package admin provides the operational HTTP side-car: ping, version,
// health check and goroutine dump endpoints.
package admin

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/sidekick/internal/httpserver"
	"github.com/marmos91/sidekick/pkg/health"
)

// ServiceName is the lifecycle name of the admin side-car.
const ServiceName = "admin"

// Service is the admin side-car. Stop drains in-flight requests before
// returning.
type Service struct {
	*httpserver.Server
	cfg Config
}

// NewService creates the admin side-car. The port is bound when the service
// starts, not here.
func NewService(cfg Config, checks *health.Registry, version VersionInfo, tracer trace.Tracer) *Service {
	cfg.ApplyDefaults()
	return &Service{
		Server: httpserver.New(ServiceName, httpserver.Config{
			Port:            cfg.Port,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			IdleTimeout:     cfg.IdleTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		}, NewRouter(cfg, checks, version, tracer)),
		cfg: cfg,
	}
}

// Config returns the effective configuration, defaults applied.
func (s *Service) Config() Config {
	return s.cfg
}
