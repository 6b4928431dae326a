// Package lifecycle provides the service model used to compose a daemon from
// independently running parts.
//
// A Service moves through a monotonic state machine
//
//	NEW -> STARTING -> RUNNING -> STOPPING -> TERMINATED
//
// and may enter FAILED from any non-terminal state. Base implements Service on
// top of three hooks (StartUp, Run, ShutDown) and runs each service on its own
// goroutine. Registry keeps the ordered set of services managed by a daemon and
// refuses registration once it has been frozen. Monitor derives aggregate
// events (all healthy, all stopped, any failure) from per-service transitions
// and forwards them to Listener implementations. ShutdownGuard and
// OnTermination make explicit stops and termination signals converge on a
// single teardown.
package lifecycle
