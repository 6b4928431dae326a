package lifecycle

// State is the lifecycle state of a Service.
type State int32

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateStopping
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateTerminated:
		return "TERMINATED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further transition is possible from s.
func (s State) IsTerminal() bool {
	return s == StateTerminated || s == StateFailed
}

// validTransitions lists every legal edge of the state machine. Anything not
// listed here is rejected, which keeps transitions monotonic.
var validTransitions = map[State][]State{
	StateNew:      {StateStarting, StateTerminated, StateFailed},
	StateStarting: {StateRunning, StateStopping, StateFailed},
	StateRunning:  {StateStopping, StateFailed},
	StateStopping: {StateTerminated, StateFailed},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ServiceState pairs a service name with the state observed at snapshot time.
type ServiceState struct {
	Name  string
	State State
}
