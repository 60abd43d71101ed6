package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adspotly/internal/domain"

	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	r := s.router

	// Health check endpoint
	r.Get("/health", s.handleHealth)

	// Public resolution surface
	r.Group(func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/go", s.handleGo)
	})

	// Uploaded creatives with cache headers
	r.Handle(s.config.Uploads.PublicPath+"/*", s.uploadsHandler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		// Builder API, owner-scoped
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/logout", s.handleLogout)

			r.Route("/qrcodes", func(r chi.Router) {
				r.Post("/", s.handleCreateQrCode)
				r.Get("/", s.handleListQrCodes)
				r.Get("/{id}", s.handleGetQrCode)
				r.Put("/{id}", s.handleUpdateQrCode)
				r.Delete("/{id}", s.handleDeleteQrCode)
				r.Get("/{id}/image.png", s.handleQrCodeImage)
				r.Get("/{id}/stats", s.handleQrCodeStats)
			})

			r.Route("/adspaces", func(r chi.Router) {
				r.Post("/", s.handleCreateAdSpace)
				r.Get("/", s.handleListAdSpaces)
				r.Get("/{id}", s.handleGetAdSpace)
				r.Put("/{id}", s.handleUpdateAdSpace)
				r.Delete("/{id}", s.handleDeleteAdSpace)
			})

			r.Route("/addesigns", func(r chi.Router) {
				r.Post("/", s.handleCreateAdDesign)
				r.Get("/", s.handleListAdDesigns)
				r.Get("/{id}", s.handleGetAdDesign)
				r.Put("/{id}", s.handleUpdateAdDesign)
				r.Delete("/{id}", s.handleDeleteAdDesign)
			})

			r.Post("/uploads", s.handleUpload)
		})

		// Diagnostics, admin only
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(s.roleMiddleware(domain.RoleAdmin))

			r.Get("/diag/logs", s.handleDiagLogs)
		})
	})
}

// uploadsHandler serves stored creative files with caching
func (s *Server) uploadsHandler() http.Handler {
	dir := s.uploads.Dir()
	prefix := s.config.Uploads.PublicPath + "/"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := strings.TrimPrefix(r.URL.Path, prefix)

		// Clean and validate the path to prevent directory traversal
		cleanPath := filepath.Clean(urlPath)
		if strings.Contains(cleanPath, "..") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		fullPath := filepath.Join(dir, cleanPath)

		absDir, _ := filepath.Abs(dir)
		absFullPath, _ := filepath.Abs(fullPath)
		if !strings.HasPrefix(absFullPath, absDir) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		// Uploads are immutable (UUID names), cache hard
		if !s.config.Debug {
			w.Header().Set("Cache-Control", "public, max-age=604800, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}

		http.ServeFile(w, r, fullPath)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}
