package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sidekick/pkg/lifecycle"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func familyNames(t *testing.T, reg *prometheus.Registry) []string {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	return names
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func hasPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestRegisterExports_AllDisabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterExports(reg, "sidekick", Config{}))
	assert.Empty(t, familyNames(t, reg))
}

func TestRegisterExports_Toggles(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterExports(reg, "sidekick", Config{
		GarbageCollectorExportsEnabled: true,
		ClassLoadingExportsEnabled:     true,
		VersionInfoExportsEnabled:      true,
	}))

	names := familyNames(t, reg)
	assert.True(t, hasPrefix(names, "go_gc_"), "GC metrics exported")
	assert.Contains(t, names, "go_build_info")
	assert.False(t, hasPrefix(names, "process_"), "standard exports stay off")
}

func TestRegisterExports_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := Config{VersionInfoExportsEnabled: true}
	require.NoError(t, RegisterExports(reg, "sidekick", cfg))
	assert.Error(t, RegisterExports(reg, "sidekick", cfg))
}

func TestServiceStateCollector(t *testing.T) {
	states := []lifecycle.ServiceState{
		{Name: "daemon", State: lifecycle.StateRunning},
		{Name: "admin", State: lifecycle.StateFailed},
	}
	c := NewServiceStateCollector("sidekick", func() []lifecycle.ServiceState { return states })

	expected := `
# HELP sidekick_service_state Lifecycle state of a managed service (0=NEW 1=STARTING 2=RUNNING 3=STOPPING 4=TERMINATED 5=FAILED).
# TYPE sidekick_service_state gauge
sidekick_service_state{service="admin"} 5
sidekick_service_state{service="daemon"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))

	states[1].State = lifecycle.StateTerminated
	assert.Equal(t, 2, testutil.CollectAndCount(c))
}

func TestService_ServesRegistry(t *testing.T) {
	ctx := testCtx(t)
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "sidekick_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	svc := NewService(Config{Port: freePort(t), Path: "/custom"}, reg)
	assert.Equal(t, "/custom", svc.Path())

	check := svc.HealthCheck()
	assert.False(t, check.Check(ctx).Healthy, "not healthy before start")

	require.NoError(t, svc.StartAsync(ctx))
	require.NoError(t, svc.AwaitRunning(ctx))
	assert.True(t, check.Check(ctx).Healthy)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", svc.Addr().(*net.TCPAddr).Port, svc.Path()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "sidekick_test_total 3")

	svc.StopAsync()
	require.NoError(t, svc.AwaitTerminated(ctx))
	res := check.Check(ctx)
	assert.False(t, res.Healthy)
	assert.Contains(t, res.Message, "TERMINATED")
}

func TestReporter_ValidatesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(duplicateCollector{})

	r := NewReporter(reg, ReporterConfig{})
	err := r.Start(testCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gather metrics")

	// Never started, so Stop has nothing to do.
	assert.NoError(t, r.Stop(testCtx(t)))
}

func TestReporter_WritesTextfile(t *testing.T) {
	ctx := testCtx(t)
	reg := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "sidekick_reporter_gauge", Help: "test"})
	reg.MustRegister(gauge)
	gauge.Set(1)

	path := filepath.Join(t.TempDir(), "sidekick.prom")
	r := NewReporter(reg, ReporterConfig{TextfilePath: path, Interval: 10 * time.Millisecond})
	require.NoError(t, r.Start(ctx))
	assert.Error(t, r.Start(ctx), "double start")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sidekick_reporter_gauge 1")

	gauge.Set(7)
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), "sidekick_reporter_gauge 7")
	}, 2*time.Second, 10*time.Millisecond)

	gauge.Set(9)
	require.NoError(t, r.Stop(ctx))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sidekick_reporter_gauge 9", "final snapshot on stop")
}

// duplicateCollector emits the same series twice, which Gather rejects.
type duplicateCollector struct{}

var dupDesc = prometheus.NewDesc("sidekick_dup", "dup", nil, nil)

func (duplicateCollector) Describe(ch chan<- *prometheus.Desc) { ch <- dupDesc }

func (duplicateCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(dupDesc, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(dupDesc, prometheus.GaugeValue, 2)
}
