// Package api provides the HTTP API server and handlers for the ReadAloud application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/readaloudapp/readaloud-server/internal/http/response"
	"github.com/readaloudapp/readaloud-server/internal/narration"
	"github.com/readaloudapp/readaloud-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	narrationService *narration.Service
	validator        *validation.Validator
	router           *chi.Mux
	logger           *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(narrationService *narration.Service, logger *slog.Logger) *Server {
	s := &Server{
		narrationService: narrationService,
		validator:        validation.New(),
		router:           chi.NewRouter(),
		logger:           logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(s.requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/narrations", func(r chi.Router) {
			r.Post("/", s.handleCreateNarration)
			r.Get("/{id}", s.handleGetNarration)
			r.Get("/{id}/audio", s.handleGetNarrationAudio)
			r.Get("/{id}/boundaries", s.handleGetNarrationBoundaries)
			r.Post("/{id}/document", s.handleMatchDocument)
			r.Delete("/{id}", s.handleDeleteNarration)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
