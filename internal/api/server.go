// Package api serves the binder over REST and pushes change events over WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ramonehamilton/deck-binder/internal/api/handlers"
	"github.com/ramonehamilton/deck-binder/internal/api/websocket"
	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
	"github.com/ramonehamilton/deck-binder/internal/drag"
	"github.com/ramonehamilton/deck-binder/internal/grid"
	"github.com/ramonehamilton/deck-binder/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

var defaultOrigins = []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"}

// Server is the REST and WebSocket server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int
	timeout    time.Duration
	origins    []string

	// WebSocket hub for pushed events
	wsHub *websocket.Hub

	deps Deps
}

// Config holds configuration for the API server.
type Config struct {
	Port           int
	AllowedOrigins []string // CORS and WebSocket origins; localhost when empty
	RequestTimeout time.Duration
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8420,
		RequestTimeout: 30 * time.Second,
	}
}

// Deps are the components the handlers operate on. History, Backups and
// Metrics may be nil.
type Deps struct {
	Session *binder.Session
	Catalog *catalog.Index
	Drag    *drag.Controller
	Layout  *drag.RectLayout
	History handlers.HistoryReader
	Backups handlers.BackupService
	Metrics *metrics.Collector
	Persist PersistStatus
	Grid    handlers.GridDefaults
}

// PersistStatus reports the write-behind backlog for /health.
type PersistStatus interface {
	Pending() int
	Failures() int
	Dropped() int
}

// NewServer creates a new API server.
func NewServer(cfg *Config, deps Deps) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if deps.Grid.Columns < 1 {
		deps.Grid.Columns = 10
	}
	deps.Grid.Columns = grid.ClampColumns(deps.Grid.Columns)
	deps.Grid.Size = grid.ParseSize(string(deps.Grid.Size))

	s := &Server{
		router:  chi.NewRouter(),
		port:    cfg.Port,
		timeout: cfg.RequestTimeout,
		origins: cfg.AllowedOrigins,
		wsHub:   websocket.NewHub(cfg.AllowedOrigins...),
		deps:    deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	origins := s.origins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Content-Type enforcement for POST/PUT/PATCH only (not GET/DELETE/OPTIONS)
	s.router.Use(jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json content-type for requests with bodies.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.wsHub.Run()
	s.httpServer = s.newHTTPServer()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[API] Server listening on port %d", s.port)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.wsHub.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the hub and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}

	log.Println("[API] Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}

// WebSocketHub returns the WebSocket hub.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

// NewWebSocketObserver creates an observer that forwards dispatched events to
// the server's WebSocket clients.
func (s *Server) NewWebSocketObserver() *websocket.WebSocketObserver {
	return websocket.NewWebSocketObserver(s.wsHub)
}
