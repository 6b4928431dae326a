package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/marmos91/sidekick/internal/logger"
)

// RegisterExports registers the process-level collectors selected by cfg.
// Nothing is registered for a disabled toggle.
func RegisterExports(reg prometheus.Registerer, namespace string, cfg Config) error {
	var cs []prometheus.Collector

	if cfg.StandardExportsEnabled {
		cs = append(cs, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	var rules []collectors.GoRuntimeMetricsRule
	if cfg.MemoryPoolsExportsEnabled {
		rules = append(rules, collectors.MetricsMemory)
	}
	if cfg.GarbageCollectorExportsEnabled {
		rules = append(rules, collectors.MetricsGC)
	}
	if cfg.ThreadExportsEnabled {
		rules = append(rules, collectors.MetricsScheduler)
	}
	if len(rules) > 0 {
		if cfg.MemoryPoolsExportsEnabled {
			cs = append(cs, collectors.NewGoCollector(
				collectors.WithGoCollectorRuntimeMetrics(rules...),
			))
		} else {
			cs = append(cs, collectors.NewGoCollector(
				collectors.WithGoCollectorMemStatsMetricsDisabled(),
				collectors.WithGoCollectorRuntimeMetrics(rules...),
			))
		}
	}

	if cfg.ClassLoadingExportsEnabled {
		cs = append(cs, NewModuleCollector(namespace))
	}
	if cfg.VersionInfoExportsEnabled {
		cs = append(cs, collectors.NewBuildInfoCollector())
	}

	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register process exports: %w", err)
		}
	}
	logger.Debug("Process exports registered", logger.KeyCount, len(cs))
	return nil
}
