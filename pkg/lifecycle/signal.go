package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// TerminationSignals are the signals that trigger OnTermination callbacks.
var TerminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// OnTermination calls fn with the received signal when the process gets
// SIGINT or SIGTERM. fn runs at most once. The returned cancel function
// unregisters the handler; it is safe to call more than once.
func OnTermination(ctx context.Context, fn func(os.Signal)) (cancel func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, TerminationSignals...)

	stop := watchSignals(ctx, sigCh, fn)
	return func() {
		signal.Stop(sigCh)
		stop()
	}
}

// watchSignals forwards the first value received on sigCh to fn until ctx is
// done or the returned stop function is called.
func watchSignals(ctx context.Context, sigCh <-chan os.Signal, fn func(os.Signal)) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		select {
		case sig := <-sigCh:
			fn(sig)
		case <-done:
		case <-ctx.Done():
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
