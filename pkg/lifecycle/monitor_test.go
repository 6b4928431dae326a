package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingListener struct {
	mu       sync.Mutex
	healthy  int
	stopped  int
	failures []string
}

func (l *countingListener) Healthy() {
	l.mu.Lock()
	l.healthy++
	l.mu.Unlock()
}

func (l *countingListener) Stopped() {
	l.mu.Lock()
	l.stopped++
	l.mu.Unlock()
}

func (l *countingListener) Failure(svc Service) {
	l.mu.Lock()
	l.failures = append(l.failures, svc.Name())
	l.mu.Unlock()
}

func (l *countingListener) counts() (int, int, []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.healthy, l.stopped, append([]string(nil), l.failures...)
}

func TestMonitor_HealthyAndStoppedOnce(t *testing.T) {
	ctx := testCtx(t)
	a := NewBase("a", Hooks{})
	b := NewBase("b", Hooks{})
	l := &countingListener{}
	NewMonitor([]Service{a, b}, l).Attach()

	require.NoError(t, a.StartAsync(ctx))
	require.NoError(t, a.AwaitRunning(ctx))
	healthy, _, _ := l.counts()
	assert.Equal(t, 0, healthy, "only one of two services is running")

	require.NoError(t, b.StartAsync(ctx))
	require.NoError(t, b.AwaitRunning(ctx))

	a.StopAsync()
	b.StopAsync()
	require.NoError(t, a.AwaitTerminated(ctx))
	require.NoError(t, b.AwaitTerminated(ctx))

	healthy, stopped, failures := l.counts()
	assert.Equal(t, 1, healthy)
	assert.Equal(t, 1, stopped)
	assert.Empty(t, failures)
}

func TestMonitor_FailureEachTime(t *testing.T) {
	ctx := testCtx(t)
	boom := errors.New("boom")
	a := NewBase("a", Hooks{StartUp: func(context.Context) error { return boom }})
	b := NewBase("b", Hooks{StartUp: func(context.Context) error { return boom }})
	l := &countingListener{}
	NewMonitor([]Service{a, b}, l).Attach()

	require.NoError(t, a.StartAsync(ctx))
	require.NoError(t, b.StartAsync(ctx))
	_ = a.AwaitTerminated(ctx)
	_ = b.AwaitTerminated(ctx)

	healthy, stopped, failures := l.counts()
	assert.Equal(t, 0, healthy)
	assert.Equal(t, 0, stopped, "failed services never count as stopped")
	assert.ElementsMatch(t, []string{"a", "b"}, failures)
}

func TestMonitor_MultipleListeners(t *testing.T) {
	ctx := testCtx(t)
	svc := NewBase("only", Hooks{})
	l1, l2 := &countingListener{}, &countingListener{}
	NewMonitor([]Service{svc}, l1, l2, LoggingListener{Name: "test"}).Attach()

	require.NoError(t, svc.StartAsync(ctx))
	require.NoError(t, svc.AwaitRunning(ctx))

	h1, _, _ := l1.counts()
	h2, _, _ := l2.counts()
	assert.Equal(t, 1, h1)
	assert.Equal(t, 1, h2)

	svc.StopAsync()
	require.NoError(t, svc.AwaitTerminated(ctx))
}
