// Package api provides the HTTP and WebSocket API for the affective engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/engine"
	"github.com/ASaxcs/bot2/internal/logging"
	"github.com/ASaxcs/bot2/internal/scheduler"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	engine   *engine.Engine
	sched    *scheduler.Scheduler
	settings *config.Config
	wsHub    *WebSocketHub
	log      *logging.Logger
}

// Config for the server
type Config struct {
	Settings  *config.Config
	Engine    *engine.Engine
	Scheduler *scheduler.Scheduler
}

// New creates a new API server
func New(cfg Config) *Server {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}

	s := &Server{
		engine:   cfg.Engine,
		sched:    cfg.Scheduler,
		settings: settings,
		wsHub:    NewWebSocketHub(),
		log:      logging.Component("api"),
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// State reads, always served from the lock-free view
		r.Get("/state", s.handleGetState)
		r.Get("/personality", s.handleGetPersonality)
		r.Get("/influence", s.handleGetInfluence)
		r.Get("/history", s.handleGetHistory)

		// Interaction processing
		r.Post("/dialogue", s.handleDialogue)
		r.Post("/experiences", s.handleRecordExperience)
		r.Get("/experiences", s.handleListExperiences)
		r.Get("/experiences/{id}", s.handleGetExperience)

		// Learning
		r.Get("/patterns", s.handleGetPatterns)
		r.Get("/adaptation/insights", s.handleGetInsights)
		r.Post("/predict/style", s.handlePredictStyle)
		r.Get("/trend/{trait}", s.handleGetTrend)

		// Lifecycle
		r.Post("/baseline", s.handleSetBaseline)
		r.Post("/reset", s.handleReset)
		r.Post("/save", s.handleSave)
		r.Post("/load", s.handleLoad)

		r.Get("/stats", s.handleGetStats)
	})

	// WebSocket
	r.Get("/ws", s.handleWebSocket)

	s.router = r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.log.Info("API server listening on http://%s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Broadcast sends a message to all WebSocket clients
func (s *Server) Broadcast(msgType string, data interface{}) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondEngineError maps engine errors onto HTTP statuses.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyInput),
		errors.Is(err, core.ErrInvalidScore),
		errors.Is(err, core.ErrUnknownTrait),
		errors.Is(err, core.ErrUnknownEmotion):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrExperienceNotFound),
		errors.Is(err, core.ErrSnapshotMissing):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrQueueFull):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, core.ErrRequestTimeout):
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, core.ErrEngineClosed):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
