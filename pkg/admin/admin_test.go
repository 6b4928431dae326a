package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/pkg/health"
	"github.com/marmos91/sidekick/pkg/lifecycle"
)

func newTestRouter(t *testing.T, checks *health.Registry) http.Handler {
	t.Helper()
	return NewRouter(Config{}, checks, VersionInfo{Service: "sidekick", Version: "1.2.3", InstanceID: "abc"}, nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := get(t, newTestRouter(t, nil), "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong\n", w.Body.String())
}

func TestVersion(t *testing.T) {
	w := get(t, newTestRouter(t, nil), "/version")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string      `json:"status"`
		Data   VersionInfo `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Data.Version)
	assert.Equal(t, "abc", resp.Data.InstanceID)
}

func TestHealthCheck_Healthy(t *testing.T) {
	checks := health.NewRegistry()
	require.NoError(t, checks.Register("ok", health.CheckFunc(func(context.Context) health.Result {
		return health.Healthy("")
	})))

	w := get(t, newTestRouter(t, checks), "/healthcheck")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	checks := health.NewRegistry()
	require.NoError(t, checks.Register("ok", health.CheckFunc(func(context.Context) health.Result {
		return health.Healthy("")
	})))
	require.NoError(t, checks.Register(health.AllServicesHealthyName, health.CheckFunc(func(context.Context) health.Result {
		return health.Unhealthy("Incorrect state: FAILED: metrics")
	})))

	w := get(t, newTestRouter(t, checks), "/healthcheck")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Status string                   `json:"status"`
		Data   map[string]health.Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.True(t, resp.Data["ok"].Healthy)
	assert.Equal(t, "Incorrect state: FAILED: metrics", resp.Data[health.AllServicesHealthyName].Message)
}

func TestHealthCheck_NoRegistry(t *testing.T) {
	w := get(t, newTestRouter(t, nil), "/healthcheck")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestThreadDump(t *testing.T) {
	w := get(t, newTestRouter(t, nil), "/threaddump")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroutine")
}

func TestIndexAndCustomPaths(t *testing.T) {
	r := NewRouter(Config{PingPath: "/alive", ThreadDumpPath: "stacks"}, nil, VersionInfo{}, nil)

	w := get(t, r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/alive"`)
	assert.Contains(t, w.Body.String(), `href="/stacks"`)

	assert.Equal(t, http.StatusOK, get(t, r, "/alive").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/ping").Code)
}

func TestRequestsAreTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	r := NewRouter(Config{}, nil, VersionInfo{}, tp.Tracer("admin"))

	get(t, r, "/ping")
	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /ping", ended[0].Name())
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", clientIP("10.0.0.1:5555"))
	assert.Equal(t, "::1", clientIP("[::1]:80"))
	assert.Equal(t, "garbage", clientIP("garbage"))
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestService_StartServeStop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc := NewService(Config{Port: freePort(t)}, nil, VersionInfo{}, nil)
	assert.Equal(t, "admin", svc.Name())
	assert.Equal(t, "ping", svc.Config().PingPath)

	require.NoError(t, svc.StartAsync(ctx))
	require.NoError(t, svc.AwaitRunning(ctx))

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", svc.Port()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong\n", string(body))

	require.NoError(t, svc.Stop(ctx))
	assert.Equal(t, lifecycle.StateTerminated, svc.State())
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "INFO", "json", false)
	t.Cleanup(func() { logger.InitWithWriter(os.Stdout, "INFO", "text", false) })

	checks := health.NewRegistry()
	require.NoError(t, checks.Register("broken", health.CheckFunc(func(context.Context) health.Result {
		return health.Unhealthy("down")
	})))
	h := newTestRouter(t, checks)

	get(t, h, "/ping")
	get(t, h, "/nope")
	get(t, h, "/healthcheck")

	levels := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		path, _ := entry[logger.KeyPath].(string)
		levels[path], _ = entry["level"].(string)
	}
	assert.Equal(t, "INFO", levels["/ping"])
	assert.Equal(t, "WARN", levels["/nope"])
	assert.Equal(t, "ERROR", levels["/healthcheck"])
}
