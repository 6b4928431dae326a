package lifecycle

import "context"

// Service is a component with its own lifecycle. Implementations must be safe
// for concurrent use; State in particular is read from health checks and
// monitors without coordination.
type Service interface {
	// Name identifies the service in logs, health output and metrics.
	Name() string

	// State returns the current lifecycle state.
	State() State

	// StartAsync initiates startup and returns immediately. It fails with
	// ErrIllegalState unless the service is NEW.
	StartAsync(ctx context.Context) error

	// StopAsync requests shutdown and returns immediately. It is a no-op once
	// the service is STOPPING or terminal. A NEW service goes straight to
	// TERMINATED.
	StopAsync()

	// AwaitRunning blocks until the service is RUNNING, reaches a terminal
	// state, or ctx is done.
	AwaitRunning(ctx context.Context) error

	// AwaitTerminated blocks until the service reaches a terminal state or ctx
	// is done. A FAILED service returns its failure cause.
	AwaitTerminated(ctx context.Context) error

	// FailureCause returns the error that moved the service to FAILED, or nil.
	FailureCause() error

	// AddListener registers l for all subsequent transitions.
	AddListener(l ServiceListener)
}

// ServiceListener observes the state transitions of a single service.
// Notifications are delivered synchronously on the goroutine performing the
// transition, so implementations must not block.
type ServiceListener interface {
	OnTransition(svc Service, from, to State, cause error)
}

// ServiceListenerFunc adapts a function to ServiceListener.
type ServiceListenerFunc func(svc Service, from, to State, cause error)

func (f ServiceListenerFunc) OnTransition(svc Service, from, to State, cause error) {
	f(svc, from, to, cause)
}
