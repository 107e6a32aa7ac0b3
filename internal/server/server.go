// Package server exposes the dialogue engine over HTTP: a turn endpoint, a
// progress endpoint, exchange search, and a websocket chat loop.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/karimzakaria/guideflow/internal/lifecycle"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	AllowAll       bool // allow all CORS origins (dev mode)
}

// Server serves the dialogue engine.
type Server struct {
	cfg        Config
	manager    *lifecycle.Manager
	store      vectordb.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server around the lifecycle manager. store backs exchange
// search and may be nil when no index is loaded.
func New(cfg Config, manager *lifecycle.Manager, store vectordb.Store) *Server {
	s := &Server{
		cfg:     cfg,
		manager: manager,
		store:   store,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll || len(corsOpts.AllowedOrigins) == 0 {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions/{key}/turn", s.handleTurn)
		r.Get("/sessions/{key}/progress", s.handleProgress)
		r.Get("/exchanges/search", s.handleSearch)
		r.Get("/chat/ws", s.handleWebSocket)
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("guideflow server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
