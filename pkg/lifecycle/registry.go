package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Phase is the lifecycle phase of a Registry. Phases only move forward.
type Phase int32

const (
	PhaseBuilding Phase = iota
	PhaseInitialized
	PhaseRunning
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseBuilding:
		return "BUILDING"
	case PhaseInitialized:
		return "INITIALIZED"
	case PhaseRunning:
		return "RUNNING"
	case PhaseStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Registry is the ordered set of services managed together. Services can be
// added while the registry is BUILDING; Freeze fixes the set, after which
// reads never take a lock.
type Registry struct {
	mu       sync.Mutex
	services []Service
	names    map[string]struct{}

	phase  atomic.Int32
	frozen atomic.Pointer[[]Service]
}

// NewRegistry creates an empty registry in PhaseBuilding.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register appends svc. It returns *AlreadyInitializedError once the registry
// has been frozen and rejects duplicate names.
func (r *Registry) Register(svc Service) error {
	return r.RegisterAll(svc)
}

// RegisterAll appends svcs in order. Either all of them are registered or
// none are.
func (r *Registry) RegisterAll(svcs ...Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.Phase(); p != PhaseBuilding {
		return &AlreadyInitializedError{Service: firstName(svcs), Phase: p}
	}

	batch := make(map[string]struct{}, len(svcs))
	for _, svc := range svcs {
		if svc == nil {
			return errors.New("cannot register nil service")
		}
		_, dup := r.names[svc.Name()]
		_, dupBatch := batch[svc.Name()]
		if dup || dupBatch {
			return fmt.Errorf("service %q already registered", svc.Name())
		}
		batch[svc.Name()] = struct{}{}
	}

	for _, svc := range svcs {
		r.names[svc.Name()] = struct{}{}
		r.services = append(r.services, svc)
	}
	return nil
}

// firstName names the rejected batch in errors.
func firstName(svcs []Service) string {
	for _, svc := range svcs {
		if svc != nil {
			return svc.Name()
		}
	}
	return ""
}

// Freeze moves the registry to PhaseInitialized. Calling it twice returns
// *AlreadyInitializedError.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.Phase(); p != PhaseBuilding {
		return &AlreadyInitializedError{Phase: p}
	}
	frozen := make([]Service, len(r.services))
	copy(frozen, r.services)
	r.frozen.Store(&frozen)
	r.phase.Store(int32(PhaseInitialized))
	return nil
}

// Advance moves the registry forward to p. Moving backwards, or staying in
// place, fails.
func (r *Registry) Advance(p Phase) error {
	for {
		cur := r.Phase()
		if p <= cur {
			return fmt.Errorf("cannot move registry from %s to %s", cur, p)
		}
		if cur == PhaseBuilding {
			return fmt.Errorf("cannot move registry from %s to %s before it is frozen", cur, p)
		}
		if r.phase.CompareAndSwap(int32(cur), int32(p)) {
			return nil
		}
	}
}

// Phase returns the current phase.
func (r *Registry) Phase() Phase {
	return Phase(r.phase.Load())
}

// Services returns the registered services in registration order.
func (r *Registry) Services() []Service {
	if f := r.frozen.Load(); f != nil {
		return *f
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	return len(r.Services())
}

// Snapshot returns the name and current state of every service, in
// registration order.
func (r *Registry) Snapshot() []ServiceState {
	services := r.Services()
	out := make([]ServiceState, len(services))
	for i, svc := range services {
		out[i] = ServiceState{Name: svc.Name(), State: svc.State()}
	}
	return out
}
