package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/core/ports/driving"
)

// Services are the components the bridge exposes
type Services struct {
	Session driving.SessionService
	Catalog driving.CatalogService
	Search  driving.SearchController
	Uploads driving.UploadService
	Summary driving.SummaryWorkflow
}

// Server is the local JSON bridge a front end talks to
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *zap.Logger

	session driving.SessionService
	catalog driving.CatalogService
	search  driving.SearchController
	uploads driving.UploadService
	summary driving.SummaryWorkflow
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
	Logger  *zap.Logger
}

// DefaultConfig binds to loopback only; the bridge carries the user's session
func DefaultConfig() Config {
	return Config{
		Host:    "127.0.0.1",
		Port:    8765,
		Version: "dev",
	}
}

// NewServer creates a new bridge server
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:  http.NewServeMux(),
		version: cfg.Version,
		logger:  logger.Named("bridge"),
		session: svc.Session,
		catalog: svc.Catalog,
		search:  svc.Search,
		uploads: svc.Uploads,
		summary: svc.Summary,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads and summary generation can take a while upstream
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	// Session
	s.router.HandleFunc("GET /session", s.handleGetSession)
	s.router.HandleFunc("POST /session/login", s.handleLogin)
	s.router.HandleFunc("POST /session/register", s.handleRegister)
	s.router.HandleFunc("POST /session/logout", s.handleLogout)
	s.router.HandleFunc("POST /session/refresh", s.handleRefreshToken)

	// Catalog
	s.router.HandleFunc("GET /catalog", s.handleGetCatalog)
	s.router.HandleFunc("POST /catalog/refresh", s.handleRefreshCatalog)
	s.router.HandleFunc("GET /catalog/documents/{id}", s.handleGetDocument)
	s.router.HandleFunc("DELETE /catalog/documents/{id}", s.handleDeleteDocument)

	// Search
	s.router.HandleFunc("GET /search", s.handleSearch)

	// Uploads
	s.router.HandleFunc("POST /uploads", s.handleUpload)

	// Summaries
	s.router.HandleFunc("GET /summary", s.handleGetSummaryState)
	s.router.HandleFunc("POST /summary/select", s.handleSelectDocument)
	s.router.HandleFunc("POST /summary/generate", s.handleGenerateSummary)
	s.router.HandleFunc("POST /summary/batch", s.handleBatchSummary)
	s.router.HandleFunc("POST /summary/ask", s.handleAsk)
	s.router.HandleFunc("GET /catalog/documents/{id}/summary", s.handleGetStoredSummary)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRequestIDMiddleware().Handler(h)
	return h
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting bridge", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("bridge server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down bridge")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("bridge shutdown failed: %w", err)
	}
	return nil
}
