// package server contains routing, middleware & handlers for the spotifie web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifie/internal/cache"
	"github.com/desertthunder/spotifie/internal/models"
	"github.com/desertthunder/spotifie/internal/services"
	"github.com/desertthunder/spotifie/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Route binds a method and path to an [AuthHandler].
type Route struct {
	Method string
	Path   string
	Handle AuthHandler
}

// Handler groups related routes.
// Implementations encapsulate their route definitions and receive the caller's [models.AuthContext] explicitly.
type Handler interface {
	Routes() []Route // Routes returns the routes this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// SpotifyClient is the upstream collaborator: the relay plus the OAuth flow.
type SpotifyClient interface {
	services.Relayer
	services.OAuthService
}

// SessionManager stores sessions and pending OAuth states.
type SessionManager interface {
	SessionLookup
	Create(identity models.Identity, token models.AuthorizedToken) *models.Session
	Delete(id string)
	PutState(state string)
	ConsumeState(state string) bool
}

// Options holds the collaborators for [New].
type Options struct {
	Config   *shared.Config
	Spotify  SpotifyClient
	Store    cache.Store
	Sessions SessionManager
	Logger   *log.Logger
}

// Server is the HTTP front of the service.
type Server struct {
	config *shared.Config
	router *BasicRouter
	logger *log.Logger
}

// New wires the router, gate, middleware and handlers.
func New(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	cfg := opts.Config
	logger := shared.WithLogger(opts.Logger, "component", "server")

	gate := NewGate(DefaultAccessTable(), opts.Sessions, cfg.Session.CookieName, logger)
	router := NewBasicRouter(gate)
	router.Use(Recovery(logger), RequestLogger(logger), CORS(cfg.Server.AllowedOrigins))

	diag := cache.NewDiagnostics(opts.Store, opts.Logger)

	router.Handler(NewSpotifyHandler(opts.Spotify, logger))
	router.Handler(NewLoginHandler(opts.Spotify, opts.Sessions, cfg.Session, logger))
	router.Handler(NewRedisHandler(diag, cfg.Redis, logger))
	router.Handler(NewHealthHandler(diag, logger))

	return &Server{config: cfg, router: router, logger: logger}
}

// Handler returns the root [http.Handler].
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server exited")
	return nil
}
