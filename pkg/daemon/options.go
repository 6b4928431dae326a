package daemon

import (
	"context"

	"github.com/marmos91/sidekick/pkg/lifecycle"
)

// Option customizes a Daemon.
type Option func(*options)

type options struct {
	adminFactory     AdminFactory
	metricsFactory   MetricsFactory
	tracingFactory   TracingFactory
	profilingFactory ProfilingFactory
	reporter         LocalReporter
	listeners        []lifecycle.Listener
	run              func(ctx context.Context) error

	version   string
	commit    string
	buildDate string
}

const defaultVersion = "dev"

func defaultOptions() options {
	return options{
		adminFactory:     defaultAdminFactory,
		metricsFactory:   defaultMetricsFactory,
		tracingFactory:   defaultTracingFactory,
		profilingFactory: defaultProfilingFactory,
		version:          defaultVersion,
		commit:           "none",
		buildDate:        "unknown",
	}
}

// WithAdminFactory replaces the admin side-car constructor.
func WithAdminFactory(f AdminFactory) Option {
	return func(o *options) { o.adminFactory = f }
}

// WithMetricsFactory replaces the metrics side-car constructor.
func WithMetricsFactory(f MetricsFactory) Option {
	return func(o *options) { o.metricsFactory = f }
}

// WithTracingFactory replaces the tracing side-car constructor.
func WithTracingFactory(f TracingFactory) Option {
	return func(o *options) { o.tracingFactory = f }
}

// WithProfilingFactory replaces the profiling side-car constructor.
func WithProfilingFactory(f ProfilingFactory) Option {
	return func(o *options) { o.profilingFactory = f }
}

// WithLocalReporter replaces the textfile metrics reporter.
func WithLocalReporter(r LocalReporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithListener adds a listener for aggregate lifecycle events, next to the
// built-in logging listener.
func WithListener(l lifecycle.Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, l) }
}

// WithRun sets the main loop of the embedding process. It runs while the
// daemon is RUNNING and must return when ctx is cancelled. An error fails
// the daemon. Without it the daemon idles until stopped.
func WithRun(run func(ctx context.Context) error) Option {
	return func(o *options) { o.run = run }
}

// WithVersion sets the build metadata reported by the admin version
// endpoint.
func WithVersion(version, commit, buildDate string) Option {
	return func(o *options) {
		o.version = version
		o.commit = commit
		o.buildDate = buildDate
	}
}
