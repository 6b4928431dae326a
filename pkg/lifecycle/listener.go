package lifecycle

import "github.com/marmos91/sidekick/internal/logger"

// Listener receives aggregate lifecycle events from a Monitor.
type Listener interface {
	// Healthy is called once, the first time every service is RUNNING.
	Healthy()
	// Stopped is called once, the first time every service is TERMINATED.
	Stopped()
	// Failure is called each time a service enters FAILED.
	Failure(svc Service)
}

// LoggingListener reports aggregate events to the log and nothing else.
type LoggingListener struct {
	Name string
}

func (l LoggingListener) Healthy() {
	logger.Info("All services are running", logger.Service(l.Name))
}

func (l LoggingListener) Stopped() {
	logger.Info("All services have stopped", logger.Service(l.Name))
}

func (l LoggingListener) Failure(svc Service) {
	logger.Error("Service failed", logger.Service(svc.Name()),
		logger.Err(svc.FailureCause()), "daemon", l.Name)
}
