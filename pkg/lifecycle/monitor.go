package lifecycle

import "sync"

// Monitor turns per-service transitions into aggregate Listener events.
type Monitor struct {
	services  []Service
	listeners []Listener

	healthyOnce sync.Once
	stoppedOnce sync.Once
}

// NewMonitor creates a monitor over services. Call Attach to start observing.
func NewMonitor(services []Service, listeners ...Listener) *Monitor {
	return &Monitor{services: services, listeners: listeners}
}

// Attach subscribes the monitor to every service.
func (m *Monitor) Attach() {
	for _, svc := range m.services {
		svc.AddListener(m)
	}
}

// OnTransition implements ServiceListener.
func (m *Monitor) OnTransition(svc Service, _, to State, _ error) {
	if to == StateFailed {
		for _, l := range m.listeners {
			l.Failure(svc)
		}
	}

	switch to {
	case StateRunning:
		if m.all(StateRunning) {
			m.healthyOnce.Do(func() {
				for _, l := range m.listeners {
					l.Healthy()
				}
			})
		}
	case StateTerminated:
		if m.all(StateTerminated) {
			m.stoppedOnce.Do(func() {
				for _, l := range m.listeners {
					l.Stopped()
				}
			})
		}
	}
}

func (m *Monitor) all(s State) bool {
	for _, svc := range m.services {
		if svc.State() != s {
			return false
		}
	}
	return true
}
