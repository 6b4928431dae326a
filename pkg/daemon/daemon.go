package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/internal/telemetry"
	"github.com/marmos91/sidekick/pkg/admin"
	"github.com/marmos91/sidekick/pkg/config"
	"github.com/marmos91/sidekick/pkg/health"
	"github.com/marmos91/sidekick/pkg/lifecycle"
	"github.com/marmos91/sidekick/pkg/metrics"
)

// MetricsNamespace prefixes the daemon's own metrics.
const MetricsNamespace = "sidekick"

// Daemon orchestrates startup and graceful shutdown of a process and its
// side-cars. It is itself a lifecycle.Service, registered first in its own
// registry.
type Daemon struct {
	*lifecycle.Base

	cfg        config.Config
	opts       options
	instanceID string

	registry  *lifecycle.Registry
	checks    *health.Registry
	metricReg *prometheus.Registry

	admin     AdminSideCar
	metrics   MetricsSideCar
	tracing   TracingSideCar
	profiling ProfilingSideCar
	reporter  LocalReporter
	extras    []lifecycle.Service

	guard lifecycle.ShutdownGuard
}

// New validates cfg and builds the daemon with every enabled side-car.
// Disabled side-cars are never constructed. Nothing is started.
func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon config is required")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := &Daemon{
		cfg:        *cfg,
		opts:       o,
		instanceID: uuid.NewString(),
		registry:   lifecycle.NewRegistry(),
		checks:     health.NewRegistry(),
		metricReg:  prometheus.NewRegistry(),
	}
	d.Base = lifecycle.NewBase(d.cfg.ServiceName, lifecycle.Hooks{
		StartUp:  d.startUp,
		Run:      d.run,
		ShutDown: d.shutDown,
	})

	if err := d.registry.Register(d); err != nil {
		return nil, err
	}
	if err := metrics.RegisterExports(d.metricReg, MetricsNamespace, d.cfg.Metrics); err != nil {
		return nil, err
	}
	if err := d.metricReg.Register(metrics.NewServiceStateCollector(MetricsNamespace, d.registry.Snapshot)); err != nil {
		return nil, fmt.Errorf("register service state collector: %w", err)
	}

	if err := d.buildSideCars(); err != nil {
		return nil, err
	}

	d.reporter = o.reporter
	if d.reporter == nil {
		d.reporter = metrics.NewReporter(d.metricReg, d.cfg.Reporter)
	}

	logger.Debug("Daemon created", logger.Service(d.Name()), logger.KeyInstance, d.instanceID,
		logger.KeyCount, d.registry.Len())
	return d, nil
}

// buildSideCars constructs and registers the enabled side-cars. Tracing is
// built first so that the admin router can trace requests, but registration
// order stays admin, metrics, tracing, profiling.
func (d *Daemon) buildSideCars() error {
	// Build metadata wins over the placeholder version of the defaults.
	if d.cfg.Tracing.ServiceVersion == "" || d.cfg.Tracing.ServiceVersion == defaultVersion {
		d.cfg.Tracing.ServiceVersion = d.opts.version
	}
	if d.cfg.Profiling.ServiceVersion == "" || d.cfg.Profiling.ServiceVersion == defaultVersion {
		d.cfg.Profiling.ServiceVersion = d.opts.version
	}

	if d.cfg.Tracing.Enabled {
		t, err := d.opts.tracingFactory(context.Background(), d.cfg.Tracing)
		if err != nil {
			return fmt.Errorf("create tracing side-car: %w", err)
		}
		d.tracing = t
	} else {
		logger.Info("Tracing side-car disabled")
	}

	if d.cfg.Admin.IsEnabled() {
		a, err := d.opts.adminFactory(d.cfg.Admin, d.checks, d.versionInfo(), d.Tracer())
		if err != nil {
			return fmt.Errorf("create admin side-car: %w", err)
		}
		d.admin = a
		if err := d.registry.Register(a); err != nil {
			return err
		}
	} else {
		logger.Info("Admin side-car disabled")
	}

	if d.cfg.Metrics.IsEnabled() {
		m, err := d.opts.metricsFactory(d.cfg.Metrics, d.metricReg)
		if err != nil {
			return fmt.Errorf("create metrics side-car: %w", err)
		}
		d.metrics = m
		if err := d.registry.Register(m); err != nil {
			return err
		}
	} else {
		logger.Info("Metrics side-car disabled")
	}

	if d.tracing != nil {
		if err := d.registry.Register(d.tracing); err != nil {
			return err
		}
	}

	if d.cfg.Profiling.Enabled {
		p, err := d.opts.profilingFactory(d.cfg.Profiling)
		if err != nil {
			return fmt.Errorf("create profiling side-car: %w", err)
		}
		d.profiling = p
		if err := d.registry.Register(p); err != nil {
			return err
		}
	} else {
		logger.Info("Profiling side-car disabled")
	}
	return nil
}

func (d *Daemon) versionInfo() admin.VersionInfo {
	return admin.VersionInfo{
		Service:    d.cfg.ServiceName,
		Version:    d.opts.version,
		Commit:     d.opts.commit,
		BuildDate:  d.opts.buildDate,
		GoVersion:  runtime.Version(),
		InstanceID: d.instanceID,
	}
}

// Register adds services of the embedding process. They are started after
// the side-cars and stopped before them. Registration is only possible
// before Initialize.
func (d *Daemon) Register(svcs ...lifecycle.Service) error {
	if err := d.registry.RegisterAll(svcs...); err != nil {
		return err
	}
	d.extras = append(d.extras, svcs...)
	return nil
}

// Initialize freezes the set of services, attaches the lifecycle listeners
// and registers the default health checks.
func (d *Daemon) Initialize() error {
	if err := d.registry.Freeze(); err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyInitialized) {
			return ErrAlreadyInitialized
		}
		return err
	}

	listeners := append([]lifecycle.Listener{lifecycle.LoggingListener{Name: d.Name()}}, d.opts.listeners...)
	lifecycle.NewMonitor(d.registry.Services(), listeners...).Attach()

	if err := d.checks.Register(health.DeadlockName, health.Deadlock(health.DeadlockConfig{
		Timeout:       d.cfg.Health.DeadlockTimeout,
		MaxGoroutines: d.cfg.Health.MaxGoroutines,
	})); err != nil {
		return err
	}
	if d.metrics != nil {
		if err := d.checks.Register(metrics.HealthCheckName, d.metrics.HealthCheck()); err != nil {
			return err
		}
	}
	if err := d.checks.Register(health.AllServicesHealthyName, health.AllServicesHealthy(d.registry.Snapshot)); err != nil {
		return err
	}

	logger.Info("Daemon initialized", logger.Service(d.Name()),
		logger.KeyCount, d.registry.Len(), logger.KeyInstance, d.instanceID)
	return nil
}

// Start starts the daemon and returns once it is RUNNING. Only a local
// reporter failure is returned; side-car start failures show up in their
// state and in the health checks.
func (d *Daemon) Start(ctx context.Context) error {
	if d.registry.Phase() == lifecycle.PhaseBuilding {
		return ErrNotInitialized
	}
	if err := d.StartAsync(ctx); err != nil {
		return err
	}
	if err := d.AwaitRunning(ctx); err != nil {
		return err
	}
	_ = d.registry.Advance(lifecycle.PhaseRunning)
	return nil
}

func (d *Daemon) startUp(ctx context.Context) error {
	ctx, span := d.Tracer().Start(ctx, "daemon.start",
		trace.WithAttributes(telemetry.Service(d.Name()), telemetry.InstanceID(d.instanceID)))
	defer span.End()

	start := time.Now()
	logger.Info("Starting daemon", logger.Service(d.Name()), logger.KeyInstance, d.instanceID)

	if err := d.reporter.Start(ctx); err != nil {
		err = fmt.Errorf("start local metrics reporter: %w", err)
		telemetry.RecordError(ctx, err)
		return err
	}

	if d.metrics != nil {
		d.startAsync(ctx, d.metrics)
	}
	if d.admin != nil {
		d.startAsync(ctx, d.admin)
	}
	if d.tracing != nil {
		d.startAsync(ctx, d.tracing)
	}
	if d.profiling != nil {
		d.startAsync(ctx, d.profiling)
	}
	for _, svc := range d.extras {
		d.startAsync(ctx, svc)
	}

	logger.Info("Daemon started", logger.Service(d.Name()), logger.DurationMs(time.Since(start)))
	return nil
}

func (d *Daemon) startAsync(ctx context.Context, svc lifecycle.Service) {
	if err := svc.StartAsync(ctx); err != nil {
		logger.Warn("Failed to start service", logger.Service(svc.Name()), logger.Err(err))
	}
}

func (d *Daemon) run(ctx context.Context) error {
	if d.opts.run == nil {
		<-ctx.Done()
		return nil
	}
	return d.opts.run(ctx)
}

// shutDown tears the side-cars down in order. Every step is best-effort: a
// failure is logged and the next step still runs.
func (d *Daemon) shutDown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("Stopping daemon", logger.Service(d.Name()))

	for i := len(d.extras) - 1; i >= 0; i-- {
		d.extras[i].StopAsync()
	}

	if d.admin != nil {
		d.step("admin", func() error { return d.admin.Stop(ctx) })
	}
	if d.metrics != nil {
		d.step("metrics", func() error {
			d.metrics.StopAsync()
			return nil
		})
	}
	if d.tracing != nil {
		d.step("tracing", func() error { return d.tracing.Stop(ctx) })
	}
	if d.profiling != nil {
		d.step("profiling", func() error { return d.profiling.Stop(ctx) })
	}
	d.step("local reporter", func() error { return d.reporter.Stop(ctx) })

	logger.Info("Daemon stopped", logger.Service(d.Name()))
	return nil
}

func (d *Daemon) step(name string, fn func() error) {
	logger.Debug("Shutdown step", logger.Step(name))
	if err := fn(); err != nil {
		logger.Warn("Shutdown step failed", logger.Step(name), logger.Err(err))
	}
}

// Stop stops the daemon and waits for the shutdown sequence to finish. Only
// the first call, or termination signal, does anything; later calls return
// nil immediately.
func (d *Daemon) Stop(ctx context.Context) error {
	var err error
	d.guard.Do(func() {
		err = d.stop(ctx)
	})
	return err
}

func (d *Daemon) stop(ctx context.Context) error {
	d.StopAsync()
	if err := d.AwaitTerminated(ctx); err != nil && d.State() != lifecycle.StateFailed {
		return err
	}

	d.releaseUnstarted(ctx)
	if d.registry.Phase() != lifecycle.PhaseBuilding {
		_ = d.registry.Advance(lifecycle.PhaseStopped)
	}
	return nil
}

// releaseUnstarted handles an aborted startup or a Close before Start.
// Services the daemon never got to start go straight to TERMINATED, but the
// tracing side-car built its provider at construction and must still flush
// and close it.
func (d *Daemon) releaseUnstarted(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.ShutdownTimeout)
	defer cancel()

	if d.tracing != nil && d.tracing.State() == lifecycle.StateNew {
		d.step("tracing", func() error { return d.tracing.Stop(ctx) })
	}
	if d.profiling != nil && d.profiling.State() == lifecycle.StateNew {
		d.step("profiling", func() error { return d.profiling.Stop(ctx) })
	}
	for _, svc := range d.registry.Services() {
		if svc.State() == lifecycle.StateNew {
			svc.StopAsync()
		}
	}
}

// RegisterTerminationHook stops the daemon on SIGINT or SIGTERM. It shares
// Stop's guard, so a signal racing an explicit Stop tears down only once.
// The returned function removes the hook.
func (d *Daemon) RegisterTerminationHook(ctx context.Context) (cancel func()) {
	return lifecycle.OnTermination(ctx, d.terminate)
}

func (d *Daemon) terminate(sig os.Signal) {
	logger.Info("Termination signal received", logger.KeySignal, sig.String())
	if err := d.Stop(context.Background()); err != nil {
		logger.Warn("Shutdown after signal failed", logger.Err(err))
	}
}

// Wait blocks until the daemon reaches a terminal state.
func (d *Daemon) Wait(ctx context.Context) error {
	return d.AwaitTerminated(ctx)
}

// Close stops the daemon. It is safe to call more than once.
func (d *Daemon) Close() error {
	return d.Stop(context.Background())
}

// MetricRegistry returns the registry served by the metrics side-car.
func (d *Daemon) MetricRegistry() *prometheus.Registry {
	return d.metricReg
}

// HealthCheckRegistry returns the registry served by the admin side-car.
func (d *Daemon) HealthCheckRegistry() *health.Registry {
	return d.checks
}

func (d *Daemon) IsAdminEnabled() bool     { return d.admin != nil }
func (d *Daemon) IsMetricsEnabled() bool   { return d.metrics != nil }
func (d *Daemon) IsTracingEnabled() bool   { return d.tracing != nil }
func (d *Daemon) IsProfilingEnabled() bool { return d.profiling != nil }

// Tracer returns the side-car's tracer, or a no-op tracer when tracing is
// disabled.
func (d *Daemon) Tracer() trace.Tracer {
	if d.tracing == nil {
		return telemetry.NoopTracer()
	}
	return d.tracing.Tracer()
}

// InstanceID identifies this process instance.
func (d *Daemon) InstanceID() string {
	return d.instanceID
}

// Services returns every managed service in registration order, the daemon
// first.
func (d *Daemon) Services() []lifecycle.Service {
	return d.registry.Services()
}

// States returns the current state of every managed service.
func (d *Daemon) States() []lifecycle.ServiceState {
	return d.registry.Snapshot()
}

// Config returns the configuration the daemon was built with.
func (d *Daemon) Config() config.Config {
	return d.cfg
}
