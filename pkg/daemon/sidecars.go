package daemon

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/sidekick/internal/telemetry"
	"github.com/marmos91/sidekick/pkg/admin"
	"github.com/marmos91/sidekick/pkg/health"
	"github.com/marmos91/sidekick/pkg/lifecycle"
	"github.com/marmos91/sidekick/pkg/metrics"
)

// AdminSideCar serves the operational endpoints. Stop drains in-flight
// requests before returning.
type AdminSideCar interface {
	lifecycle.Service
	Stop(ctx context.Context) error
}

// MetricsSideCar exposes the metric registry. It is stopped asynchronously.
type MetricsSideCar interface {
	lifecycle.Service
	HealthCheck() health.Check
}

// TracingSideCar reports spans. Stop flushes buffered spans, then closes
// the exporter.
type TracingSideCar interface {
	lifecycle.Service
	Stop(ctx context.Context) error
	Tracer() trace.Tracer
}

// ProfilingSideCar runs a continuous profiler.
type ProfilingSideCar interface {
	lifecycle.Service
	Stop(ctx context.Context) error
}

// LocalReporter is started synchronously before any side-car; a Start
// failure aborts startup.
type LocalReporter interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Factories build side-cars from their configuration. They are only called
// for enabled side-cars.
type (
	AdminFactory     func(cfg admin.Config, checks *health.Registry, version admin.VersionInfo, tracer trace.Tracer) (AdminSideCar, error)
	MetricsFactory   func(cfg metrics.Config, reg *prometheus.Registry) (MetricsSideCar, error)
	TracingFactory   func(ctx context.Context, cfg telemetry.TracingConfig) (TracingSideCar, error)
	ProfilingFactory func(cfg telemetry.ProfilingConfig) (ProfilingSideCar, error)
)

func defaultAdminFactory(cfg admin.Config, checks *health.Registry, version admin.VersionInfo, tracer trace.Tracer) (AdminSideCar, error) {
	return admin.NewService(cfg, checks, version, tracer), nil
}

func defaultMetricsFactory(cfg metrics.Config, reg *prometheus.Registry) (MetricsSideCar, error) {
	return metrics.NewService(cfg, reg), nil
}

func defaultTracingFactory(ctx context.Context, cfg telemetry.TracingConfig) (TracingSideCar, error) {
	return telemetry.NewTracingService(ctx, cfg)
}

func defaultProfilingFactory(cfg telemetry.ProfilingConfig) (ProfilingSideCar, error) {
	return telemetry.NewProfilingService(cfg)
}
