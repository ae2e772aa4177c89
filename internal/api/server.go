package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Session is the view of the gateway connection the server reports on.
// *bridge.Session implements it.
type Session interface {
	ID() string
	PluginID() string
	Running() bool
	Adapters() []*addon.Adapter
	Notifiers() []*addon.Notifier
}

// HealthChecker is a dependency whose health is reported by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Session Session

	// Gatherer serves /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// Checks are optional named dependencies included in /health.
	Checks map[string]HealthChecker

	GatewayVersion string
	Version        string
}

// Server is the add-on's local status server.
//
// It exposes health, the registered adapters and notifiers with their
// current device state, and Prometheus metrics. It never accepts commands;
// all control flows through the gateway.
type Server struct {
	cfg            config.APIConfig
	logger         *logging.Logger
	session        Session
	gatherer       prometheus.Gatherer
	checks         map[string]HealthChecker
	gatewayVersion string
	version        string
	startTime      time.Time

	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		cfg:            deps.Config,
		logger:         deps.Logger,
		session:        deps.Session,
		gatherer:       gatherer,
		checks:         deps.Checks,
		gatewayVersion: deps.GatewayVersion,
		version:        deps.Version,
		startTime:      time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine. The
// server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("status server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("status server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down status server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
