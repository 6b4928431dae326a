// Package health provides named health checks and the registry that runs them.
package health

import "context"

// Result is the verdict of a single health check.
type Result struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Healthy returns a healthy result with an optional message.
func Healthy(msg string) Result {
	return Result{Healthy: true, Message: msg}
}

// Unhealthy returns an unhealthy result carrying a diagnostic message.
func Unhealthy(msg string) Result {
	return Result{Healthy: false, Message: msg}
}

// Check computes a Result from current state. Checks must not cache verdicts
// between invocations and must be safe for concurrent use.
type Check interface {
	Check(ctx context.Context) Result
}

// CheckFunc adapts a function to Check.
type CheckFunc func(ctx context.Context) Result

func (f CheckFunc) Check(ctx context.Context) Result {
	return f(ctx)
}
