package telemetry

import (
	"context"
	"fmt"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/pkg/lifecycle"
)

// ProfilingServiceName is the lifecycle name of the profiling side-car.
const ProfilingServiceName = "profiling"

// profiler is the part of *pyroscope.Profiler the service relies on.
type profiler interface {
	Stop() error
}

type profilerStarter func(pyroscope.Config) (profiler, error)

func startPyroscope(cfg pyroscope.Config) (profiler, error) {
	return pyroscope.Start(cfg)
}

// ProfilingService runs a Pyroscope continuous profiler while RUNNING.
type ProfilingService struct {
	*lifecycle.Base

	cfg      pyroscope.Config
	types    []string
	start    profilerStarter
	profiler profiler
}

// NewProfilingService validates cfg and prepares the profiler. Nothing is
// sent to the server until the service is started.
func NewProfilingService(cfg ProfilingConfig) (*ProfilingService, error) {
	return newProfilingService(cfg, startPyroscope)
}

func newProfilingService(cfg ProfilingConfig, start profilerStarter) (*ProfilingService, error) {
	profileTypes := make([]pyroscope.ProfileType, 0, len(cfg.ProfileTypes))
	for _, pt := range cfg.ProfileTypes {
		profileType, err := parseProfileType(pt)
		if err != nil {
			return nil, fmt.Errorf("invalid profile type %q: %w", pt, err)
		}
		profileTypes = append(profileTypes, profileType)
	}

	s := &ProfilingService{
		cfg: pyroscope.Config{
			ApplicationName: cfg.ServiceName,
			ServerAddress:   cfg.Endpoint,
			Tags: map[string]string{
				"version": cfg.ServiceVersion,
			},
			ProfileTypes: profileTypes,
		},
		types: cfg.ProfileTypes,
		start: start,
	}
	s.Base = lifecycle.NewBase(ProfilingServiceName, lifecycle.Hooks{
		StartUp:  s.startUp,
		ShutDown: s.shutDown,
	})
	return s, nil
}

func (s *ProfilingService) startUp(context.Context) error {
	// Mutex and block profiles need their runtime sampling switched on.
	for _, pt := range s.types {
		switch pt {
		case "mutex_count", "mutex_duration":
			runtime.SetMutexProfileFraction(5)
		case "block_count", "block_duration":
			runtime.SetBlockProfileRate(5)
		}
	}

	p, err := s.start(s.cfg)
	if err != nil {
		return fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	s.profiler = p
	logger.Info("Continuous profiling started", logger.KeyEndpoint, s.cfg.ServerAddress)
	return nil
}

func (s *ProfilingService) shutDown(context.Context) error {
	if s.profiler == nil {
		return nil
	}
	if err := s.profiler.Stop(); err != nil {
		return fmt.Errorf("failed to stop Pyroscope profiler: %w", err)
	}
	return nil
}

// Stop stops the profiler and waits for the final upload.
func (s *ProfilingService) Stop(ctx context.Context) error {
	s.StopAsync()
	return s.AwaitTerminated(ctx)
}

// parseProfileType converts a string profile type to Pyroscope ProfileType.
func parseProfileType(pt string) (pyroscope.ProfileType, error) {
	switch pt {
	case "cpu":
		return pyroscope.ProfileCPU, nil
	case "alloc_objects":
		return pyroscope.ProfileAllocObjects, nil
	case "alloc_space":
		return pyroscope.ProfileAllocSpace, nil
	case "inuse_objects":
		return pyroscope.ProfileInuseObjects, nil
	case "inuse_space":
		return pyroscope.ProfileInuseSpace, nil
	case "goroutines":
		return pyroscope.ProfileGoroutines, nil
	case "mutex_count":
		return pyroscope.ProfileMutexCount, nil
	case "mutex_duration":
		return pyroscope.ProfileMutexDuration, nil
	case "block_count":
		return pyroscope.ProfileBlockCount, nil
	case "block_duration":
		return pyroscope.ProfileBlockDuration, nil
	default:
		return pyroscope.ProfileCPU, fmt.Errorf("unknown profile type: %s", pt)
	}
}
