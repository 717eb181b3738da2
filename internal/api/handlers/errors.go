// Package handlers implements the REST endpoints over the binder session, the
// card catalog and the drag controller.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deck-binder/internal/api/response"
	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
	"github.com/ramonehamilton/deck-binder/internal/drag"
)

// SourceAPI tags commits made through the REST API.
const SourceAPI = "api"

var errNoHistory = errors.New("history is not available without storage")

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, binder.ErrDeckNotFound),
		errors.Is(err, binder.ErrUnknownCard),
		errors.Is(err, catalog.ErrNotFound):
		response.NotFound(w, err)

	case errors.Is(err, binder.ErrInsufficientQuantity),
		errors.Is(err, binder.ErrNotOwned),
		errors.Is(err, drag.ErrDragInProgress),
		errors.Is(err, drag.ErrNotDragging),
		errors.Is(err, drag.ErrSourceChanged):
		response.Conflict(w, err)

	case errors.Is(err, binder.ErrSlotOutOfRange),
		errors.Is(err, binder.ErrEmptySlot),
		errors.Is(err, binder.ErrInvalidCover),
		errors.Is(err, binder.ErrInvalidDeck),
		errors.Is(err, binder.ErrInvalidCount),
		errors.Is(err, binder.ErrQuantityOverflow),
		errors.Is(err, drag.ErrNothingToDrag):
		response.Unprocessable(w, err)

	case errors.Is(err, binder.ErrSessionClosed), errors.Is(err, errNoHistory):
		response.ServiceUnavailable(w, err)

	default:
		log.Printf("[API] Internal error: %v", err)
		response.InternalError(w, err)
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// intParam parses a numeric URL parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

// queryInt returns the integer query parameter name, or def when it is absent
// or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// queryFloat works like queryInt for floating point values.
func queryFloat(r *http.Request, name string, def float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}
