package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vawter.tech/stopper"

	"github.com/marmos91/sidekick/internal/logger"
)

// DefaultStopGrace bounds how long the stopper waits for a service goroutine
// after a stop has been requested.
const DefaultStopGrace = 5 * time.Second

// Hooks are the behavior plugged into a Base.
//
// StartUp runs on the service goroutine while the service is STARTING. Run is
// invoked once the service is RUNNING and should return when ctx is
// cancelled; a nil Run simply waits for the stop request. ShutDown runs while
// the service is STOPPING with a context that is not cancelled by the stop.
// Any hook returning an error moves the service to FAILED.
type Hooks struct {
	StartUp  func(ctx context.Context) error
	Run      func(ctx context.Context) error
	ShutDown func(ctx context.Context) error
}

// Base is a Service driven by Hooks. Every instance runs on its own goroutine,
// supervised by a stopper.Context.
type Base struct {
	name      string
	hooks     Hooks
	stopGrace time.Duration

	state         atomic.Int32
	stopRequested atomic.Bool

	mu        sync.Mutex // guards listeners, cause, sctx, cancelRun
	listeners []ServiceListener
	cause     error
	sctx      *stopper.Context
	cancelRun context.CancelFunc

	runningOnce    sync.Once
	running        chan struct{} // closed once RUNNING or terminal
	terminatedOnce sync.Once
	terminated     chan struct{} // closed once terminal
}

// BaseOption configures a Base.
type BaseOption func(*Base)

// WithStopGrace overrides DefaultStopGrace.
func WithStopGrace(d time.Duration) BaseOption {
	return func(b *Base) {
		b.stopGrace = d
	}
}

// NewBase creates a NEW service named name.
func NewBase(name string, hooks Hooks, opts ...BaseOption) *Base {
	b := &Base{
		name:       name,
		hooks:      hooks,
		stopGrace:  DefaultStopGrace,
		running:    make(chan struct{}),
		terminated: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.state.Store(int32(StateNew))
	return b
}

func (b *Base) Name() string { return b.name }

func (b *Base) State() State { return State(b.state.Load()) }

func (b *Base) FailureCause() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cause
}

func (b *Base) AddListener(l ServiceListener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

func (b *Base) StartAsync(ctx context.Context) error {
	if !b.transition(StateNew, StateStarting, nil) {
		return illegalState(b.name, "start", b.State())
	}

	// The service outlives the caller's deadline; only StopAsync ends it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sctx := stopper.WithContext(runCtx)

	b.mu.Lock()
	b.sctx = sctx
	b.cancelRun = cancel
	b.mu.Unlock()

	sctx.Go(func(sctx *stopper.Context) error {
		b.execute(runCtx, sctx)
		return nil
	})
	return nil
}

func (b *Base) StopAsync() {
	b.stopRequested.Store(true)
	for {
		switch cur := b.State(); cur {
		case StateNew:
			if b.transition(StateNew, StateTerminated, nil) {
				return
			}
		case StateRunning:
			if b.transition(StateRunning, StateStopping, nil) {
				b.mu.Lock()
				cancel, sctx := b.cancelRun, b.sctx
				b.mu.Unlock()
				cancel()
				sctx.Stop(b.stopGrace)
				return
			}
		default:
			// STARTING picks up stopRequested once StartUp returns.
			return
		}
	}
}

func (b *Base) AwaitRunning(ctx context.Context) error {
	select {
	case <-b.running:
	case <-ctx.Done():
		return fmt.Errorf("awaiting %q to run: %w", b.name, ctx.Err())
	}
	switch cur := b.State(); cur {
	case StateRunning:
		return nil
	case StateFailed:
		return fmt.Errorf("service %q failed: %w", b.name, b.FailureCause())
	default:
		return fmt.Errorf("%w: expected service %q to be RUNNING but was %s", ErrIllegalState, b.name, cur)
	}
}

func (b *Base) AwaitTerminated(ctx context.Context) error {
	select {
	case <-b.terminated:
	case <-ctx.Done():
		return fmt.Errorf("awaiting %q to terminate: %w", b.name, ctx.Err())
	}
	if b.State() == StateFailed {
		return fmt.Errorf("service %q failed: %w", b.name, b.FailureCause())
	}
	return nil
}

// execute drives the service from STARTING to a terminal state.
func (b *Base) execute(runCtx context.Context, sctx *stopper.Context) {
	if b.hooks.StartUp != nil {
		if err := b.hooks.StartUp(runCtx); err != nil {
			b.fail(fmt.Errorf("start up: %w", err))
			return
		}
	}

	if b.stopRequested.Load() {
		b.transition(StateStarting, StateStopping, nil)
		b.shutDown(runCtx)
		return
	}
	if !b.transition(StateStarting, StateRunning, nil) {
		return
	}
	if b.stopRequested.Load() {
		// StopAsync may have observed STARTING just before the swap above.
		b.StopAsync()
	}

	var runErr error
	if b.hooks.Run != nil {
		runErr = b.hooks.Run(runCtx)
	} else {
		select {
		case <-runCtx.Done():
		case <-sctx.Stopping():
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		b.shutDownQuietly(runCtx)
		b.fail(fmt.Errorf("run: %w", runErr))
		return
	}

	// Run returning on its own counts as a stop request.
	b.transition(StateRunning, StateStopping, nil)
	b.shutDown(runCtx)
}

func (b *Base) shutDown(runCtx context.Context) {
	if b.hooks.ShutDown != nil {
		if err := b.hooks.ShutDown(context.WithoutCancel(runCtx)); err != nil {
			b.fail(fmt.Errorf("shut down: %w", err))
			return
		}
	}
	b.transition(StateStopping, StateTerminated, nil)
}

// shutDownQuietly releases resources after Run failed. Its error is logged
// because the Run error is the one recorded as cause.
func (b *Base) shutDownQuietly(runCtx context.Context) {
	if b.hooks.ShutDown == nil {
		return
	}
	if err := b.hooks.ShutDown(context.WithoutCancel(runCtx)); err != nil {
		logger.Debug("Shut down after run failure also failed", logger.Service(b.name), logger.Err(err))
	}
}

// fail moves the service to FAILED from whatever non-terminal state it is in.
func (b *Base) fail(cause error) {
	for {
		cur := b.State()
		if cur.IsTerminal() {
			return
		}
		b.mu.Lock()
		b.cause = cause
		b.mu.Unlock()
		if b.transition(cur, StateFailed, cause) {
			return
		}
	}
}

// transition performs a compare-and-swap on the state and notifies listeners
// when it succeeds.
func (b *Base) transition(from, to State, cause error) bool {
	if !CanTransition(from, to) {
		return false
	}
	if !b.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}

	logger.Debug("Service transitioned", logger.Service(b.name),
		logger.KeyPrevious, from.String(), logger.State(to.String()))

	b.mu.Lock()
	listeners := make([]ServiceListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	// Listeners run before waiters are released so that Await* callers
	// observe their side effects.
	for _, l := range listeners {
		l.OnTransition(b, from, to, cause)
	}

	if to == StateRunning || to.IsTerminal() {
		b.runningOnce.Do(func() { close(b.running) })
	}
	if to.IsTerminal() {
		b.terminatedOnce.Do(func() { close(b.terminated) })
		b.release()
	}
	return true
}

// release stops the supervising stopper once the service is terminal.
func (b *Base) release() {
	b.mu.Lock()
	cancel, sctx := b.cancelRun, b.sctx
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if sctx != nil {
		sctx.Stop(b.stopGrace)
	}
}
