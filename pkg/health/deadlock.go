package health

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// DeadlockName is the name under which the self-liveness probe is registered.
const DeadlockName = "thread_deadlock"

// DeadlockConfig tunes the liveness probe.
type DeadlockConfig struct {
	// Timeout is how long a freshly scheduled goroutine may take to answer.
	// Default: 1s
	Timeout time.Duration

	// MaxGoroutines flags the process unhealthy above this goroutine count.
	// Zero disables the ceiling.
	MaxGoroutines int
}

// Deadlock returns a probe that verifies the scheduler still runs new
// goroutines promptly.
func Deadlock(cfg DeadlockConfig) Check {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	return CheckFunc(func(ctx context.Context) Result {
		if cfg.MaxGoroutines > 0 {
			if n := runtime.NumGoroutine(); n > cfg.MaxGoroutines {
				return Unhealthy(fmt.Sprintf("%d goroutines exceed limit of %d", n, cfg.MaxGoroutines))
			}
		}

		pong := make(chan struct{})
		go func() { close(pong) }()

		timer := time.NewTimer(cfg.Timeout)
		defer timer.Stop()
		select {
		case <-pong:
			return Healthy("")
		case <-timer.C:
			return Unhealthy(fmt.Sprintf("goroutine not scheduled within %s", cfg.Timeout))
		case <-ctx.Done():
			return Unhealthy(fmt.Sprintf("check cancelled: %v", ctx.Err()))
		}
	})
}
