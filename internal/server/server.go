// Package server provides the HTTP API for Naosu.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/naosu/internal/cache"
	"github.com/hyperjump/naosu/internal/config"
	"github.com/hyperjump/naosu/internal/ingest"
	"github.com/hyperjump/naosu/internal/patch"
	"github.com/hyperjump/naosu/internal/pipeline"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Naosu API.
type Server struct {
	cache    *cache.IndexCache
	ingest   *ingest.Pipeline
	analysis *pipeline.Analysis
	executor *patch.Executor
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	c *cache.IndexCache,
	ing *ingest.Pipeline,
	analysis *pipeline.Analysis,
	executor *patch.Executor,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		cache:    c,
		ingest:   ing,
		analysis: analysis,
		executor: executor,
		config:   cfg,
		logger:   logger,
	}
}

// router assembles the API routes and middleware chain.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents/{id}/ingest", s.handleIngest)
	r.Post("/api/v1/documents/{id}/process", s.handleProcess)
	r.Post("/api/v1/documents/{id}/patch", s.handleApplyPatch)
	r.Put("/api/v1/conversations/{id}/document", s.handleSetActiveDocument)
	r.Get("/api/v1/conversations/{id}/document", s.handleGetActiveDocument)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := s.router()
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
