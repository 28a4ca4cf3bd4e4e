package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/demo-api/internal/config"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/mw"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/routes"
	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	handler http.Handler
	logger  logger.Logger
	started time.Time
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	handler := NewRouter(loggerClient, d)

	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		handler: handler,
		logger:  loggerClient,
		started: d.StartTime,
	}
}

// NewRouter returns the fully wired router.
func NewRouter(loggerClient logger.Logger, d deps.Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = loggerClient
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	r := chi.NewRouter()

	// --- Global middlewares
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID) // X-Request-ID on each request
	if d.TrustProxy {
		r.Use(middleware.RealIP) // only behind a proxy we control
	}
	r.Use(middleware.Recoverer) // never crash the process on panic
	r.Use(middleware.Timeout(timeout))
	r.Use(mw.Log(loggerClient))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(mw.CORS(d.CORSOrigins))

	routes.RegisterAll(r, d)

	return r
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infof("HTTP server listening on %s", ln.Addr())
	err := s.http.Serve(ln)
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...",
		logger.Duration("uptime", time.Since(s.started)))
	return s.http.Shutdown(ctx)
}
