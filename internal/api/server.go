package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server runs the API over HTTP.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer creates a Server on port. Extra handlers, such as static files,
// can be mounted on the returned Mux before Start.
func NewServer(port int, handler *APIHandler, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	handler.Routes(mux)

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.Named("api-server"),
	}
}

// Mux returns the server's router.
func (s *Server) Mux() *http.ServeMux {
	return s.server.Handler.(*http.ServeMux)
}

// Start runs the HTTP server in a new goroutine. Failures are sent on the
// returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", zap.Error(err))
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}
