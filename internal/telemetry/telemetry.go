// Package telemetry provides the tracing and profiling side-cars.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/pkg/lifecycle"
)

// TracingServiceName is the lifecycle name of the tracing side-car.
const TracingServiceName = "tracing"

// TracingService owns an OpenTelemetry tracer provider. The provider and its
// exporter are built at construction; starting the service installs it as
// the global provider, and stopping flushes buffered spans before closing
// the exporter.
type TracingService struct {
	*lifecycle.Base

	cfg      TracingConfig
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer

	releaseOnce sync.Once
	releaseErr  error
}

// TracingOption customizes a TracingService.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	exporter   sdktrace.SpanExporter
	processors []sdktrace.SpanProcessor
}

// WithExporter replaces the OTLP exporter, e.g. with an in-memory one.
func WithExporter(exp sdktrace.SpanExporter) TracingOption {
	return func(o *tracingOptions) {
		o.exporter = exp
	}
}

// WithSpanProcessor registers an additional span processor.
func WithSpanProcessor(sp sdktrace.SpanProcessor) TracingOption {
	return func(o *tracingOptions) {
		o.processors = append(o.processors, sp)
	}
}

// NewTracingService builds the exporter and tracer provider described by cfg.
func NewTracingService(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (*TracingService, error) {
	var o tracingOptions
	for _, opt := range opts {
		opt(&o)
	}

	exporter := o.exporter
	if exporter == nil {
		var err error
		exporter, err = newExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRate)),
	}
	for _, sp := range o.processors {
		providerOpts = append(providerOpts, sdktrace.WithSpanProcessor(sp))
	}
	provider := sdktrace.NewTracerProvider(providerOpts...)

	s := &TracingService{
		cfg:      cfg,
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
	}
	s.Base = lifecycle.NewBase(TracingServiceName, lifecycle.Hooks{
		StartUp:  s.startUp,
		ShutDown: s.shutDown,
	})
	return s, nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Protocol {
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint()),
			otlptracehttp.WithURLPath("/" + cfg.Path),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP/HTTP exporter: %w", err)
		}
		return exp, nil
	case ProtocolGRPC, "":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint())}
		if cfg.Insecure {
			opts = append(opts,
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
				otlptracegrpc.WithInsecure(),
			)
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported tracing protocol %q", cfg.Protocol)
	}
}

func newSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

func (s *TracingService) startUp(context.Context) error {
	otel.SetTracerProvider(s.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("Tracing reporter started", logger.KeyEndpoint, s.cfg.URL())
	return nil
}

func (s *TracingService) shutDown(ctx context.Context) error {
	return s.release(ctx)
}

// release flushes and closes the provider exactly once, whether the service
// ran or went straight from NEW to TERMINATED.
func (s *TracingService) release(ctx context.Context) error {
	s.releaseOnce.Do(func() {
		s.releaseErr = s.closeProvider(ctx)
	})
	return s.releaseErr
}

func (s *TracingService) closeProvider(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultTracingConfig().ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.provider.ForceFlush(ctx); err != nil {
		logger.Warn("Trace flush failed", logger.Err(err))
	}
	if err := s.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}
	logger.Info("Tracing reporter stopped")
	return nil
}

// Stop flushes buffered spans and closes the exporter, waiting for both. A
// service that was never started still releases its provider.
func (s *TracingService) Stop(ctx context.Context) error {
	s.StopAsync()
	if err := s.AwaitTerminated(ctx); err != nil {
		return err
	}
	return s.release(ctx)
}

// Tracer returns the tracer backed by this service's provider.
func (s *TracingService) Tracer() trace.Tracer {
	return s.tracer
}

// NoopTracer returns a tracer that records nothing, for use when tracing is
// disabled.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("sidekick")
}
