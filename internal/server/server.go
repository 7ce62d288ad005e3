// Package server provides the HTTP server and routing for the prediction
// and training APIs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/tankintel/internal/database"
	"github.com/aristath/tankintel/internal/inference"
	"github.com/aristath/tankintel/internal/reliability"
	"github.com/aristath/tankintel/internal/training"
	"github.com/aristath/tankintel/pkg/logger"
)

// Config holds server configuration
type Config struct {
	Port      int
	Log       zerolog.Logger
	DevMode   bool
	Inference *inference.Service
	Trainer   *training.Trainer
	Ledger    *database.Ledger
	Events    *EventsHub
	Backup    *reliability.BackupService // nil when backups are not configured
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	inference *inference.Service
	trainer   *training.Trainer
	ledger    *database.Ledger
	events    *EventsHub
	backup    *reliability.BackupService
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       logger.Component(cfg.Log, "server"),
		inference: cfg.Inference,
		trainer:   cfg.Trainer,
		ledger:    cfg.Ledger,
		events:    cfg.Events,
		backup:    cfg.Backup,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/countries", s.handleCountries)
		r.Get("/countries/{country}/config", s.handleCountryConfig)

		r.Route("/predict", func(r chi.Router) {
			r.Post("/deal", s.handlePredictDeal)
			r.Post("/valuation", s.handlePredictValuation)
			r.Post("/sharks", s.handlePredictInvestors)
			r.Post("/similar", s.handleFindSimilar)
			r.Post("/all", s.handlePredictAll)
		})

		r.Route("/training", func(r chi.Router) {
			r.Post("/run", s.handleTrainingRun)
			r.Get("/runs", s.handleTrainingRuns)
			if s.events != nil {
				r.Get("/events", s.events.ServeHTTP)
			}
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
			if s.backup != nil {
				r.Post("/backup", s.handleBackupNow)
				r.Get("/backups", s.handleBackupList)
			}
		})
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "tankintel",
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
