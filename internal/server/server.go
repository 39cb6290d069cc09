package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ternarybob/menuscout/internal/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server serves the nearby search API and the collected data
type Server struct {
	app    *app.App
	server *http.Server
}

// New builds the server and its routes. Nothing listens until Start.
func New(application *app.App) *Server {
	s := &Server{app: application}

	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.withTracing(s.withMiddleware(s.setupRoutes())),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second, // nearby search may wait on the upstream timeout
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// withTracing starts a server span per request, continuing any incoming trace context
func (s *Server) withTracing(handler http.Handler) http.Handler {
	return otelhttp.NewHandler(handler, s.app.Config.Telemetry.ServiceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Addr returns the configured host:port
func (s *Server) Addr() string {
	return net.JoinHostPort(s.app.Config.Server.Host, fmt.Sprintf("%d", s.app.Config.Server.Port))
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on Addr and blocks until the server is shut down.
// A clean shutdown returns nil.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until the server is shut down
func (s *Server) Serve(listener net.Listener) error {
	addr := listener.Addr().String()
	collection := s.app.Config.Collection

	s.app.Logger.Info().
		Str("address", addr).
		Str("example", fmt.Sprintf("http://%s/maps/restaurants/nearby?lat=%.4f&lng=%.4f", addr, collection.Latitude, collection.Longitude)).
		Msg("HTTP server listening")

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
