package admin

import (
	"fmt"
	"io"
	"net/http"
	"runtime/pprof"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/pkg/health"
)

type handlers struct {
	checks  *health.Registry
	version VersionInfo
	links   []string
}

// ping handles GET /{ping_path}.
func (h *handlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "must-revalidate,no-cache,no-store")
	_, _ = io.WriteString(w, "pong\n")
}

// versionInfo handles GET /{version_path}.
func (h *handlers) versionInfo(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, okResponse(h.version))
}

// healthCheck handles GET /{health_check_path}. It runs every registered
// check and returns 200 only if all of them are healthy.
func (h *handlers) healthCheck(w http.ResponseWriter, r *http.Request) {
	if h.checks == nil {
		JSON(w, http.StatusNotImplemented, errorResponse("no health checks registered"))
		return
	}

	results := h.checks.RunAll(r.Context())
	byName := make(map[string]health.Result, len(results))
	for _, res := range results {
		byName[res.Name] = res.Result
	}

	w.Header().Set("Cache-Control", "must-revalidate,no-cache,no-store")
	if health.AllHealthy(results) {
		JSON(w, http.StatusOK, healthyResponse(byName))
		return
	}
	logger.DebugCtx(r.Context(), "Health check reported unhealthy", logger.KeyCount, len(results))
	JSON(w, http.StatusInternalServerError, unhealthyResponse(byName))
}

// threadDump handles GET /{thread_dump_path} with a full goroutine dump.
func (h *handlers) threadDump(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "must-revalidate,no-cache,no-store")
	if err := pprof.Lookup("goroutine").WriteTo(w, 2); err != nil {
		logger.Warn("Goroutine dump failed", logger.Err(err))
	}
}

// index handles GET / with links to every admin endpoint.
func (h *handlers) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, "<html><head><title>Operational Menu</title></head><body>\n<h1>Operational Menu</h1>\n<ul>\n")
	for _, l := range h.links {
		_, _ = fmt.Fprintf(w, "  <li><a href=\"%s\">%s</a></li>\n", l, l[1:])
	}
	_, _ = io.WriteString(w, "</ul>\n</body></html>\n")
}
