package health

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyCheck() Check {
	return CheckFunc(func(context.Context) Result { return Healthy("") })
}

func TestRegistry_RegisterAndRun(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("b", healthyCheck()))
	require.NoError(t, r.Register("a", CheckFunc(func(context.Context) Result {
		return Unhealthy("disk full")
	})))

	assert.Equal(t, []string{"a", "b"}, r.Names())

	res, ok := r.Run(context.Background(), "a")
	require.True(t, ok)
	assert.False(t, res.Healthy)
	assert.Equal(t, "disk full", res.Message)

	_, ok = r.Run(context.Background(), "missing")
	assert.False(t, ok)

	all := r.RunAll(context.Background())
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "b", all[1].Name)
	assert.False(t, AllHealthy(all))
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("dup", healthyCheck()))
	assert.Error(t, r.Register("dup", healthyCheck()))
	assert.Error(t, r.Register("", healthyCheck()))
	assert.Error(t, r.Register("nil", nil))
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("x", healthyCheck()))
	r.Unregister("x")
	r.Unregister("never-there")
	assert.Empty(t, r.Names())
}

func TestRegistry_PanickingCheck(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("bad", CheckFunc(func(context.Context) Result {
		panic("nil map")
	})))

	res, ok := r.Run(context.Background(), "bad")
	require.True(t, ok)
	assert.False(t, res.Healthy)
	assert.Contains(t, res.Message, "nil map")
}

func TestRegistry_ConcurrentRunAll(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", healthyCheck()))
	require.NoError(t, r.Register("b", Deadlock(DeadlockConfig{})))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, AllHealthy(r.RunAll(context.Background())))
		}()
	}
	wg.Wait()
}
