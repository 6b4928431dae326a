// Package daemon provides process startup and shutdown orchestration.
//
// A Daemon owns the lifecycle registry, the health check registry and the
// Prometheus registry of a process, and coordinates the optional side-cars
// (admin endpoint, metrics exporter, tracing reporter, profiler) around the
// embedding process's own services: synchronous local reporter start, then
// asynchronous side-car starts, and on stop an ordered best-effort teardown
// that runs exactly once no matter how many callers race for it.
package daemon
