// Package server exposes the dashboard over REST and streamable MCP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/fidash/internal/app"
	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/interfaces"
)

// Server wraps the HTTP server and the dashboard it serves.
type Server struct {
	dashboard interfaces.DashboardService
	mcp       *mcpserver.MCPServer
	server    *http.Server
	logger    *common.Logger
}

// NewServer creates the HTTP server for an initialized App.
func NewServer(a *app.App) *Server {
	return newServer(a.Config.Server, a.Dashboard, a.MCPServer, a.Logger)
}

func newServer(config common.ServerConfig, dashboard interfaces.DashboardService, mcp *mcpserver.MCPServer, logger *common.Logger) *Server {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Server{
		dashboard: dashboard,
		mcp:       mcp,
		logger:    logger,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(correlationIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", s.handleGetDashboard)
			r.Post("/refresh", s.handleRefreshDashboard)
			r.Get("/history", s.handleDashboardHistory)
		})

		r.Get("/tools/{tool}", s.handleRawTool)
	})

	if s.mcp != nil {
		r.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.mcp,
			mcpserver.WithStateLess(true),
		))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server (blocking). It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server, closing it outright if
// outstanding requests miss the deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Graceful shutdown failed")
		return s.server.Close()
	}
	return nil
}
