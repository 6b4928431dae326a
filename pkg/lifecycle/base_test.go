package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// recorder collects transitions observed on a service.
type recorder struct {
	mu    sync.Mutex
	edges []string
}

func (r *recorder) OnTransition(_ Service, from, to State, _ error) {
	r.mu.Lock()
	r.edges = append(r.edges, from.String()+"->"+to.String())
	r.mu.Unlock()
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.edges...)
}

func TestBase_HappyPath(t *testing.T) {
	ctx := testCtx(t)
	var started, stopped atomic.Bool
	svc := NewBase("worker", Hooks{
		StartUp:  func(context.Context) error { started.Store(true); return nil },
		ShutDown: func(context.Context) error { stopped.Store(true); return nil },
	})
	rec := &recorder{}
	svc.AddListener(rec)

	assert.Equal(t, StateNew, svc.State())
	require.NoError(t, svc.StartAsync(ctx))
	require.NoError(t, svc.AwaitRunning(ctx))
	assert.True(t, started.Load())
	assert.Equal(t, StateRunning, svc.State())

	svc.StopAsync()
	require.NoError(t, svc.AwaitTerminated(ctx))
	assert.True(t, stopped.Load())
	assert.Equal(t, StateTerminated, svc.State())
	assert.Nil(t, svc.FailureCause())

	assert.Equal(t, []string{
		"NEW->STARTING",
		"STARTING->RUNNING",
		"RUNNING->STOPPING",
		"STOPPING->TERMINATED",
	}, rec.get())
}

func TestBase_StartTwice(t *testing.T) {
	ctx := testCtx(t)
	svc := NewBase("worker", Hooks{})
	require.NoError(t, svc.StartAsync(ctx))

	err := svc.StartAsync(ctx)
	assert.ErrorIs(t, err, ErrIllegalState)

	svc.StopAsync()
	require.NoError(t, svc.AwaitTerminated(ctx))
}

func TestBase_StopNewService(t *testing.T) {
	ctx := testCtx(t)
	svc := NewBase("idle", Hooks{})
	svc.StopAsync()

	assert.Equal(t, StateTerminated, svc.State())
	require.NoError(t, svc.AwaitTerminated(ctx))
	assert.ErrorIs(t, svc.StartAsync(ctx), ErrIllegalState)
	assert.ErrorIs(t, svc.AwaitRunning(ctx), ErrIllegalState)
}

func TestBase_StartUpFailure(t *testing.T) {
	ctx := testCtx(t)
	boom := errors.New("port in use")
	svc := NewBase("admin", Hooks{
		StartUp: func(context.Context) error { return boom },
	})

	require.NoError(t, svc.StartAsync(ctx))
	err := svc.AwaitRunning(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, svc.State())
	assert.ErrorIs(t, svc.FailureCause(), boom)

	// Stopping a failed service is a no-op.
	svc.StopAsync()
	assert.Equal(t, StateFailed, svc.State())
	assert.ErrorIs(t, svc.AwaitTerminated(ctx), boom)
}

func TestBase_RunFailure(t *testing.T) {
	ctx := testCtx(t)
	boom := errors.New("listener closed")
	var shutDown atomic.Bool
	svc := NewBase("metrics", Hooks{
		Run:      func(context.Context) error { return boom },
		ShutDown: func(context.Context) error { shutDown.Store(true); return nil },
	})

	require.NoError(t, svc.StartAsync(ctx))
	err := svc.AwaitTerminated(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, svc.State())
	assert.True(t, shutDown.Load(), "resources are released after a run failure")
}

func TestBase_RunReturnsOnCancel(t *testing.T) {
	ctx := testCtx(t)
	svc := NewBase("loop", Hooks{
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	require.NoError(t, svc.StartAsync(ctx))
	require.NoError(t, svc.AwaitRunning(ctx))
	svc.StopAsync()
	require.NoError(t, svc.AwaitTerminated(ctx))
	assert.Equal(t, StateTerminated, svc.State())
}

func TestBase_ShutDownFailure(t *testing.T) {
	ctx := testCtx(t)
	boom := errors.New("flush failed")
	svc := NewBase("tracing", Hooks{
		ShutDown: func(context.Context) error { return boom },
	})

	require.NoError(t, svc.StartAsync(ctx))
	require.NoError(t, svc.AwaitRunning(ctx))
	svc.StopAsync()
	assert.ErrorIs(t, svc.AwaitTerminated(ctx), boom)
	assert.Equal(t, StateFailed, svc.State())
}

func TestBase_StopDuringStartUp(t *testing.T) {
	ctx := testCtx(t)
	release := make(chan struct{})
	entered := make(chan struct{})
	svc := NewBase("slow", Hooks{
		StartUp: func(context.Context) error {
			close(entered)
			<-release
			return nil
		},
	})

	require.NoError(t, svc.StartAsync(ctx))
	<-entered
	svc.StopAsync()
	assert.Equal(t, StateStarting, svc.State())

	close(release)
	require.NoError(t, svc.AwaitTerminated(ctx))
	assert.Equal(t, StateTerminated, svc.State())
}

func TestBase_ServiceOutlivesStartContext(t *testing.T) {
	startCtx, cancel := context.WithCancel(context.Background())
	svc := NewBase("worker", Hooks{})
	require.NoError(t, svc.StartAsync(startCtx))
	ctx := testCtx(t)
	require.NoError(t, svc.AwaitRunning(ctx))

	cancel()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateRunning, svc.State())

	svc.StopAsync()
	require.NoError(t, svc.AwaitTerminated(ctx))
}

func TestBase_AwaitHonorsContext(t *testing.T) {
	svc := NewBase("never", Hooks{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := svc.AwaitRunning(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBase_ConcurrentStop(t *testing.T) {
	ctx := testCtx(t)
	var shutdowns atomic.Int32
	svc := NewBase("worker", Hooks{
		ShutDown: func(context.Context) error { shutdowns.Add(1); return nil },
	})
	require.NoError(t, svc.StartAsync(ctx))
	require.NoError(t, svc.AwaitRunning(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.StopAsync()
		}()
	}
	wg.Wait()

	require.NoError(t, svc.AwaitTerminated(ctx))
	assert.Equal(t, int32(1), shutdowns.Load())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateNew, StateStarting, true},
		{StateNew, StateTerminated, true},
		{StateStarting, StateRunning, true},
		{StateRunning, StateStopping, true},
		{StateStopping, StateTerminated, true},
		{StateRunning, StateFailed, true},
		{StateRunning, StateStarting, false},
		{StateTerminated, StateRunning, false},
		{StateFailed, StateTerminated, false},
		{StateNew, StateRunning, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}
