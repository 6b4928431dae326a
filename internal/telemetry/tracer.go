package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/sidekick/internal/logger"
)

// Attribute keys for lifecycle and side-car spans.
const (
	AttrService    = "sidekick.service"
	AttrState      = "sidekick.state"
	AttrInstanceID = "sidekick.instance_id"
	AttrCheck      = "sidekick.health.check"
	AttrHealthy    = "sidekick.health.healthy"
	AttrHTTPMethod = "http.request.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.response.status_code"
)

func Service(name string) attribute.KeyValue {
	return attribute.String(AttrService, name)
}

func State(s string) attribute.KeyValue {
	return attribute.String(AttrState, s)
}

func InstanceID(id string) attribute.KeyValue {
	return attribute.String(AttrInstanceID, id)
}

func Check(name string) attribute.KeyValue {
	return attribute.String(AttrCheck, name)
}

func Healthy(ok bool) attribute.KeyValue {
	return attribute.Bool(AttrHealthy, ok)
}

func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// StartHTTPSpan starts a server span for an admin or metrics request.
func StartHTTPSpan(ctx context.Context, tracer trace.Tracer, method, route string) (context.Context, trace.Span) {
	return tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(AttrHTTPMethod, method),
			attribute.String(AttrHTTPRoute, route),
		),
	)
}

// RecordError records an error on the current span.
// This also sets the span status to Error.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// TraceID returns the trace ID from the current span context.
// Returns empty string if no span is active.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// SpanID returns the span ID from the current span context.
// Returns empty string if no span is active.
func SpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}

// WithLogContext copies the active trace and span IDs into the logger
// context carried by ctx, creating one for service if absent.
func WithLogContext(ctx context.Context, service string) context.Context {
	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext(service)
	}
	return logger.WithContext(ctx, lc.WithTrace(TraceID(ctx), SpanID(ctx)))
}
