package metrics

import (
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/sidekick/pkg/lifecycle"
)

// serviceStateCollector exposes the lifecycle state of every managed service.
// Values are read on every scrape, never cached.
type serviceStateCollector struct {
	source func() []lifecycle.ServiceState
	desc   *prometheus.Desc
}

// NewServiceStateCollector returns a collector emitting
// <namespace>_service_state{service="..."} with the numeric lifecycle state
// (0=NEW ... 4=TERMINATED, 5=FAILED).
func NewServiceStateCollector(namespace string, source func() []lifecycle.ServiceState) prometheus.Collector {
	return &serviceStateCollector{
		source: source,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "service_state"),
			"Lifecycle state of a managed service (0=NEW 1=STARTING 2=RUNNING 3=STOPPING 4=TERMINATED 5=FAILED).",
			[]string{"service"}, nil,
		),
	}
}

func (c *serviceStateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *serviceStateCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.source() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(s.State), s.Name)
	}
}

// moduleCollector exposes one info series per dependency module linked into
// the binary.
type moduleCollector struct {
	desc    *prometheus.Desc
	modules []*debug.Module
}

// NewModuleCollector returns a collector emitting
// <namespace>_module_info{path="...",version="..."} 1 for each linked module.
func NewModuleCollector(namespace string) prometheus.Collector {
	c := &moduleCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "module_info"),
			"Modules linked into the running binary.",
			[]string{"path", "version"}, nil,
		),
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		c.modules = info.Deps
	}
	return c
}

func (c *moduleCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *moduleCollector) Collect(ch chan<- prometheus.Metric) {
	seen := make(map[[2]string]struct{}, len(c.modules))
	for _, m := range c.modules {
		mod := m
		if m.Replace != nil {
			mod = m.Replace
		}
		key := [2]string{mod.Path, mod.Version}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, 1, mod.Path, mod.Version)
	}
}
