package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalState is returned when an operation is not allowed in the
	// service's current state, e.g. starting a service twice.
	ErrIllegalState = errors.New("illegal service state")

	// ErrAlreadyInitialized matches every *AlreadyInitializedError via errors.Is.
	ErrAlreadyInitialized = errors.New("registry already initialized")
)

// AlreadyInitializedError is returned by Registry when a mutation is attempted
// after the registry has been frozen.
type AlreadyInitializedError struct {
	// Service is the name of the service whose registration was rejected.
	// Empty when the rejected operation was Freeze itself.
	Service string
	Phase   Phase
}

func (e *AlreadyInitializedError) Error() string {
	if e.Service == "" {
		return fmt.Sprintf("registry already initialized (phase %s)", e.Phase)
	}
	return fmt.Sprintf("cannot register service %q: registry already initialized (phase %s)", e.Service, e.Phase)
}

// Is makes errors.Is(err, ErrAlreadyInitialized) true.
func (e *AlreadyInitializedError) Is(target error) bool {
	return target == ErrAlreadyInitialized
}

// illegalState builds an ErrIllegalState error describing the rejected call.
func illegalState(name, op string, current State) error {
	return fmt.Errorf("%w: cannot %s service %q in state %s", ErrIllegalState, op, name, current)
}
