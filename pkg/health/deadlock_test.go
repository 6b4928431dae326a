package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeadlock_Healthy(t *testing.T) {
	res := Deadlock(DeadlockConfig{}).Check(context.Background())
	assert.True(t, res.Healthy)
}

func TestDeadlock_GoroutineCeiling(t *testing.T) {
	res := Deadlock(DeadlockConfig{MaxGoroutines: 1}).Check(context.Background())
	assert.False(t, res.Healthy)
	assert.Contains(t, res.Message, "exceed limit of 1")
}

func TestDeadlock_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Either branch may win the select; the verdict must still be defined.
	res := Deadlock(DeadlockConfig{}).Check(ctx)
	if !res.Healthy {
		assert.Contains(t, res.Message, "cancelled")
	}
}
