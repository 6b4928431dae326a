// Package httpserver runs an http.Handler as a lifecycle.Service.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/pkg/lifecycle"
)

// Config holds listener and timeout settings.
type Config struct {
	// Port to listen on. Zero picks a free port, which is mostly useful in
	// tests; the bound address is available from Addr once RUNNING.
	Port int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Server is an HTTP server driven by the lifecycle state machine. The port is
// bound during STARTING, so a bind failure moves the service to FAILED
// without it ever being reported RUNNING.
type Server struct {
	*lifecycle.Base

	cfg    Config
	server *http.Server

	mu       sync.RWMutex
	listener net.Listener
	serveErr chan error
}

// New creates a server named name serving handler.
func New(name string, cfg Config, handler http.Handler) *Server {
	cfg.applyDefaults()
	s := &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		serveErr: make(chan error, 1),
	}
	s.Base = lifecycle.NewBase(name, lifecycle.Hooks{
		StartUp:  s.startUp,
		Run:      s.run,
		ShutDown: s.shutDown,
	})
	return s
}

func (s *Server) startUp(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.serveErr <- err
		}
	}()

	logger.Info("HTTP server listening", logger.Service(s.Name()), logger.KeyAddr, ln.Addr().String())
	return nil
}

func (s *Server) run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-s.serveErr:
		return fmt.Errorf("serve: %w", err)
	}
}

func (s *Server) shutDown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	logger.Debug("HTTP server shutdown initiated", logger.Service(s.Name()))
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("HTTP server stopped gracefully", logger.Service(s.Name()))
	return nil
}

// Stop requests shutdown and waits for in-flight requests to drain.
func (s *Server) Stop(ctx context.Context) error {
	s.StopAsync()
	return s.AwaitTerminated(ctx)
}

// Addr returns the bound address, or nil before the listener is open.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Bound reports whether the listener is open.
func (s *Server) Bound() bool {
	return s.Addr() != nil
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.cfg.Port
}
