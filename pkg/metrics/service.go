package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/sidekick/internal/httpserver"
	"github.com/marmos91/sidekick/pkg/health"
	"github.com/marmos91/sidekick/pkg/lifecycle"
)

// ServiceName is the lifecycle name of the metrics side-car.
const ServiceName = "metrics"

// HealthCheckName is the name under which the side-car's own probe is
// registered.
const HealthCheckName = "metrics_service"

// Service serves the Prometheus exposition of a gatherer over HTTP.
type Service struct {
	*httpserver.Server
	path string
}

// NewService creates the metrics side-car serving reg. It does not bind the
// port until started.
func NewService(cfg Config, reg *prometheus.Registry) *Service {
	cfg.ApplyDefaults()
	path := "/" + strings.TrimPrefix(cfg.Path, "/")

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle(path, promhttp.InstrumentMetricHandler(reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})))

	return &Service{
		Server: httpserver.New(ServiceName, httpserver.Config{
			Port:            cfg.Port,
			ShutdownTimeout: cfg.ShutdownTimeout,
		}, r),
		path: path,
	}
}

// Path returns the exposition path, with a leading slash.
func (s *Service) Path() string {
	return s.path
}

// HealthCheck returns a probe that is healthy while the side-car is RUNNING
// with its listener bound.
func (s *Service) HealthCheck() health.Check {
	return health.CheckFunc(func(context.Context) health.Result {
		if st := s.State(); st != lifecycle.StateRunning {
			return health.Unhealthy(fmt.Sprintf("metrics service is %s", st))
		}
		if !s.Bound() {
			return health.Unhealthy("metrics listener is not bound")
		}
		return health.Healthy("")
	})
}
