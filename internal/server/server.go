// package server exposes the download scheduler and account-link flow over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// The package ships request logging and panic recovery; callers may add their own.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the offline download service.
// Implementations handle related endpoint groups (download jobs, account linking).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// shutdownTimeout bounds connection draining once the context ends.
const shutdownTimeout = 5 * time.Second

// Server owns the http.Server lifecycle for the daemon.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New creates a Server for the given address and root handler.
func New(addr string, handler http.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: handler},
		logger:     logger,
	}
}

// Run serves until the context is cancelled, then drains in-flight
// connections. A clean close returns nil.
func (s *Server) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("http server shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
