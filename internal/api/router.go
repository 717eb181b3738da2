package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ramonehamilton/deck-binder/internal/api/handlers"
	"github.com/ramonehamilton/deck-binder/internal/api/response"
	"github.com/ramonehamilton/deck-binder/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	cardHandler := handlers.NewCardHandler(s.deps.Catalog)
	collectionHandler := handlers.NewCollectionHandler(s.deps.Session, s.deps.Catalog, s.deps.History, s.deps.Grid)
	wishlistHandler := handlers.NewWishlistHandler(s.deps.Session, s.deps.Catalog)
	deckHandler := handlers.NewDeckHandler(s.deps.Session, s.deps.Catalog, s.deps.Drag, s.deps.Grid)
	dragHandler := handlers.NewDragHandler(s.deps.Drag, s.deps.Layout, s.deps.Session, s.deps.Grid)
	backupHandler := handlers.NewBackupHandler(s.deps.Backups)

	s.router.Get("/health", s.healthCheck)

	// WebSocket connections are long-lived and stay outside the request timeout.
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		if s.deps.Metrics != nil {
			r.Use(s.deps.Metrics.Middleware)
		}

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.SearchCards)
			r.Get("/{cardID}", cardHandler.GetCard)
		})

		r.Route("/collection", func(r chi.Router) {
			r.Get("/", collectionHandler.GetCollection)
			r.Get("/grid", collectionHandler.GetCollectionGrid)
			r.Get("/history", collectionHandler.GetRecentChanges)
			r.Post("/{cardID}/acquire", collectionHandler.Acquire)
			r.Post("/{cardID}/release", collectionHandler.Release)
			r.Get("/{cardID}/history", collectionHandler.GetCardHistory)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.GetWishlist)
			r.Put("/{cardID}", wishlistHandler.AddWish)
			r.Delete("/{cardID}", wishlistHandler.RemoveWish)
		})

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckHandler.GetDecks)
			r.Post("/", deckHandler.CreateDeck)
			r.Get("/{deckID}", deckHandler.GetDeck)
			r.Patch("/{deckID}", deckHandler.UpdateDeck)
			r.Delete("/{deckID}", deckHandler.DeleteDeck)
			r.Get("/{deckID}/grid", deckHandler.GetDeckGrid)
			r.Post("/{deckID}/move", deckHandler.MoveCard)
			r.Post("/{deckID}/transfer", deckHandler.TransferCard)
			r.Put("/{deckID}/slots/{slot}", deckHandler.PlaceCard)
			r.Delete("/{deckID}/slots/{slot}", deckHandler.RemoveCard)
		})

		r.Route("/drag", func(r chi.Router) {
			r.Get("/", dragHandler.GetState)
			r.Post("/down", dragHandler.PointerDown)
			r.Post("/move", dragHandler.PointerMove)
			r.Post("/up", dragHandler.PointerUp)
			r.Post("/cancel", dragHandler.Cancel)
			r.Get("/layout", dragHandler.GetLayout)
			r.Put("/layout", dragHandler.SetLayout)
		})

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", backupHandler.ListBackups)
			r.Post("/", backupHandler.CreateBackup)
		})

		r.Get("/metrics", s.getMetrics)
	})
}

// healthCheck reports liveness and the committed version.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.deps.Session.Closed() {
		status = "closed"
	}
	body := map[string]interface{}{
		"status":    status,
		"build":     version.GetVersion(),
		"version":   s.deps.Session.Version(),
		"cards":     s.deps.Catalog.Len(),
		"wsClients": s.wsHub.ClientCount(),
	}
	if p := s.deps.Persist; p != nil {
		body["persist"] = map[string]int{
			"pending":  p.Pending(),
			"failures": p.Failures(),
			"dropped":  p.Dropped(),
		}
	}
	response.Success(w, body)
}

// getMetrics returns the collector snapshot.
func (s *Server) getMetrics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Metrics == nil {
		response.ServiceUnavailable(w, errors.New("metrics are not enabled"))
		return
	}
	response.Success(w, s.deps.Metrics.Stats())
}
