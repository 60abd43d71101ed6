// Package server provides HTTP server setup and handlers
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adspotly/internal/config"
	"adspotly/internal/logger"
	"adspotly/internal/media"
	"adspotly/internal/repository"
	"adspotly/internal/resolver"
	"adspotly/internal/templates"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	config    *config.Config
	repos     *repository.Repositories
	templates *templates.Manager
	engine    *resolver.Engine
	uploads   *media.Store
	retry     resolver.RetryPolicy
	router    *chi.Mux
	http      *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, repos *repository.Repositories, tmpl *templates.Manager, engine *resolver.Engine, uploads *media.Store) *Server {
	s := &Server{
		config:    cfg,
		repos:     repos,
		templates: tmpl,
		engine:    engine,
		uploads:   uploads,
		retry: resolver.RetryPolicy{
			Attempts: cfg.Resolver.RetryAttempts,
			Delay:    time.Duration(cfg.Resolver.RetryDelayMs) * time.Millisecond,
		},
		router: chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Run starts the server and handles graceful shutdown
func (s *Server) Run() error {
	serverErrors := make(chan error, 1)

	go func() {
		logger.Log.Info("server starting", zap.String("address", s.config.Address()))
		serverErrors <- s.http.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Log.Info("shutting down", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			logger.Log.Error("graceful shutdown failed", zap.Error(err))
			if err := s.http.Close(); err != nil {
				return fmt.Errorf("failed to close server: %w", err)
			}
		}

		logger.Log.Info("server shutdown complete")
	}

	return nil
}

// setupMiddleware configures global middleware
func (s *Server) setupMiddleware() {
	// Real IP detection (important for scan analytics behind proxies)
	s.router.Use(middleware.RealIP)

	// Request ID for tracing, surfaced in the debug panel
	s.router.Use(middleware.RequestID)

	// Request logging through the application logger
	s.router.Use(s.requestLogger)

	// Panic recovery
	s.router.Use(middleware.Recoverer)

	// Security headers
	s.router.Use(s.securityHeaders)

	// Response compression (level 5 is a good balance)
	s.router.Use(middleware.Compress(5))

	// Timeout for requests
	s.router.Use(middleware.Timeout(30 * time.Second))
}

// securityHeaders adds security-related headers to all responses
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Relaxed to allow externally hosted creatives on the view page
		csp := "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"img-src * data:; " +
			"media-src *; " +
			"font-src 'self'"
		w.Header().Set("Content-Security-Policy", csp)

		next.ServeHTTP(w, r)
	})
}

// GetRouter returns the chi router (useful for testing)
func (s *Server) GetRouter() *chi.Mux {
	return s.router
}
