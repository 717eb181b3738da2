// Package response writes the JSON envelopes used by every API handler.
//
// Successful bodies are wrapped as {"data": ...}. Failures carry the status
// text, the error message and the numeric status.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

type envelope struct {
	Data interface{} `json:"data"`
}

// Page is one slice of a longer result list.
type Page struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalCount int         `json:"total_count"`
	TotalPages int         `json:"total_pages"`
}

// JSON encodes body with status. A nil body sends headers only.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, envelope{Data: data})
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, envelope{Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes err as the message of a status reply.
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
	})
}

func BadRequest(w http.ResponseWriter, err error) { Error(w, http.StatusBadRequest, err) }

func NotFound(w http.ResponseWriter, err error) { Error(w, http.StatusNotFound, err) }

func Conflict(w http.ResponseWriter, err error) { Error(w, http.StatusConflict, err) }

func Unprocessable(w http.ResponseWriter, err error) { Error(w, http.StatusUnprocessableEntity, err) }

func ServiceUnavailable(w http.ResponseWriter, err error) {
	Error(w, http.StatusServiceUnavailable, err)
}

func InternalError(w http.ResponseWriter, err error) {
	Error(w, http.StatusInternalServerError, err)
}

// Paginate writes the 1-based page of items. Pages past the end are empty
// and always report at least one total page.
func Paginate[T any](w http.ResponseWriter, items []T, page, pageSize int) {
	page = max(page, 1)
	pageSize = max(pageSize, 1)

	start := len(items)
	if page-1 <= len(items)/pageSize {
		start = min((page-1)*pageSize, len(items))
	}
	end := min(start+pageSize, len(items))

	JSON(w, http.StatusOK, Page{
		Data:       items[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(items),
		TotalPages: max((len(items)+pageSize-1)/pageSize, 1),
	})
}
