package lifecycle

import "sync/atomic"

// ShutdownGuard lets exactly one of several racing callers run teardown.
type ShutdownGuard struct {
	done atomic.Bool
}

// Do runs fn if no earlier call has claimed the guard and reports whether it
// did.
func (g *ShutdownGuard) Do(fn func()) bool {
	if !g.done.CompareAndSwap(false, true) {
		return false
	}
	fn()
	return true
}

// Done reports whether teardown has already been claimed.
func (g *ShutdownGuard) Done() bool {
	return g.done.Load()
}
