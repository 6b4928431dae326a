package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/pkg/lifecycle"
)

// AllServicesHealthyName is the name under which the composite check is
// registered.
const AllServicesHealthyName = "all_services_healthy"

// StateSource returns the current state of every managed service in
// registration order.
type StateSource func() []lifecycle.ServiceState

// AllServicesHealthy returns the composite check: healthy iff every service
// reported by source is RUNNING. Otherwise the message lists each
// non-running "STATE: name" pair in registration order, and each pair is
// logged at warn level.
func AllServicesHealthy(source StateSource) Check {
	return CheckFunc(func(context.Context) Result {
		var bad []string
		for _, s := range source() {
			if s.State == lifecycle.StateRunning {
				continue
			}
			logger.Warn("Incorrect state", logger.State(s.State.String()), logger.Service(s.Name))
			bad = append(bad, fmt.Sprintf("%s: %s", s.State, s.Name))
		}
		if len(bad) == 0 {
			return Healthy("")
		}
		return Unhealthy("Incorrect state: " + strings.Join(bad, ", "))
	})
}
