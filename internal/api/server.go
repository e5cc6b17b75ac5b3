package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/wirelessmesh-core/internal/audit"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/config"
	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/logging"
	"github.com/nerrad567/wirelessmesh-core/internal/location"
	"github.com/nerrad567/wirelessmesh-core/internal/mesh"
	"github.com/nerrad567/wirelessmesh-core/internal/notify"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// LocationService is the command and query side of the mesh runtime.
type LocationService interface {
	Execute(ctx context.Context, cmd location.Command) (mesh.Result, error)
	Query(ctx context.Context, customerLocationID string) (location.Snapshot, error)
	History(ctx context.Context, customerLocationID string) ([]notify.Envelope, error)
	LocationIDs(ctx context.Context) ([]string, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps holds the dependencies of the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Security  config.SecurityConfig
	Logger    *logging.Logger
	Locations LocationService
	Audit     audit.Repository       // optional; enables GET /audit
	Health    map[string]HealthCheck // optional; reported by /health
	Hub       *Hub                   // optional; created on Start when nil
	Version   string
}

// Server is the HTTP API server.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	locations LocationService
	auditRepo audit.Repository
	health    map[string]HealthCheck
	version   string
	hub       *Hub
	ownHub    bool
	server    *http.Server
	cancel    context.CancelFunc
}

// New creates a server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Locations == nil {
		return nil, fmt.Errorf("location service is required")
	}
	if deps.Security.AuthEnabled && deps.Security.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required when auth is enabled")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger.Component("api"),
		locations: deps.Locations,
		auditRepo: deps.Audit,
		health:    deps.Health,
		version:   deps.Version,
		hub:       deps.Hub,
	}
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		s.ownHub = true
	}
	return s, nil
}

// Hub returns the WebSocket hub events are broadcast on.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the router. Start uses it; tests call it directly.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.ownHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close shuts the server down, waiting for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
