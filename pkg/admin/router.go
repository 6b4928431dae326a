package admin

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/internal/telemetry"
	"github.com/marmos91/sidekick/pkg/health"
)

// NewRouter creates the chi router serving the admin endpoints.
//
// Middleware, in order: request ID, real IP, tracing plus request logging,
// panic recovery and a request timeout.
func NewRouter(cfg Config, checks *health.Registry, version VersionInfo, tracer trace.Tracer) http.Handler {
	cfg.ApplyDefaults()
	if tracer == nil {
		tracer = telemetry.NoopTracer()
	}

	paths := struct{ ping, version, health, dump string }{
		ping:    "/" + strings.TrimPrefix(cfg.PingPath, "/"),
		version: "/" + strings.TrimPrefix(cfg.VersionPath, "/"),
		health:  "/" + strings.TrimPrefix(cfg.HealthCheckPath, "/"),
		dump:    "/" + strings.TrimPrefix(cfg.ThreadDumpPath, "/"),
	}
	h := &handlers{
		checks:  checks,
		version: version,
		links:   []string{paths.ping, paths.version, paths.health, paths.dump},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(tracer))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get(paths.ping, h.ping)
	r.Get(paths.version, h.versionInfo)
	r.Get(paths.health, h.healthCheck)
	r.Get(paths.dump, h.threadDump)
	r.Get("/", h.index)

	return r
}

// requestLogger wraps each request in a server span and logs it with the
// span's trace identifiers.
func requestLogger(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := telemetry.StartHTTPSpan(r.Context(), tracer, r.Method, r.URL.Path)
			defer span.End()

			lc := logger.NewLogContext(ServiceName).
				WithRequest(middleware.GetReqID(ctx), clientIP(r.RemoteAddr))
			ctx = logger.WithContext(ctx, lc)
			ctx = telemetry.WithLogContext(ctx, ServiceName)

			logger.DebugCtx(ctx, "Admin request started",
				logger.KeyMethod, r.Method,
				logger.KeyPath, r.URL.Path,
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			telemetry.SetAttributes(ctx, telemetry.HTTPStatus(status))
			args := []any{
				logger.KeyMethod, r.Method,
				logger.KeyPath, r.URL.Path,
				logger.KeyStatus, status,
				logger.DurationMs(time.Since(start)),
			}
			switch {
			case status >= http.StatusInternalServerError:
				logger.ErrorCtx(ctx, "Admin request failed", args...)
			case status >= http.StatusBadRequest:
				logger.WarnCtx(ctx, "Admin request rejected", args...)
			default:
				logger.InfoCtx(ctx, "Admin request completed", args...)
			}
		})
	}
}

// clientIP strips the port from a remote address.
func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
