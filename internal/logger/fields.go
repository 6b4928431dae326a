package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use these consistently so
// lifecycle and side-car log lines can be queried together.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Lifecycle
	KeyService  = "service"  // Managed service name
	KeyState    = "state"    // Lifecycle state (NEW, RUNNING, ...)
	KeyPrevious = "previous" // State before a transition
	KeyPhase    = "phase"    // Registry phase
	KeyCount    = "count"    // Number of services, checks, metric families
	KeyInstance = "instance" // Process instance ID

	// Health
	KeyCheck   = "check"   // Health check name
	KeyHealthy = "healthy" // Health verdict
	KeyMessage = "message" // Health diagnostic message

	// Transport
	KeyPort      = "port"
	KeyAddr      = "addr"
	KeyPath      = "path"
	KeyEndpoint  = "endpoint"
	KeyRequestID = "request_id"
	KeyClientIP  = "client_ip"
	KeyMethod    = "method"
	KeyStatus    = "status"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeySignal     = "signal"
	KeyStep       = "step"
)

// Service returns an attribute naming a managed service.
func Service(name string) slog.Attr {
	return slog.String(KeyService, name)
}

// State returns an attribute for a lifecycle state.
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Check returns an attribute naming a health check.
func Check(name string) slog.Attr {
	return slog.String(KeyCheck, name)
}

// Port returns an attribute for a listening port.
func Port(p int) slog.Attr {
	return slog.Int(KeyPort, p)
}

// Path returns an attribute for an HTTP or file path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Step returns an attribute naming a shutdown or startup step.
func Step(name string) slog.Attr {
	return slog.String(KeyStep, name)
}

// DurationMs returns an attribute holding d in milliseconds.
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}

// Err returns an attribute for an error, or an empty attribute for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
