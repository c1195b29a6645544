// Package handler provides the HTTP handlers of the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/handler/dto"
	"github.com/cardcycle/cardcycle/internal/service"
)

// NotFound handles unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: dto.ErrorDetail{Code: code, Message: message}})
}

// decodeJSON decodes the request body into v, writing the error response
// itself when decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
	case errors.Is(err, dto.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "INVALID_DATE", dto.ErrInvalidDate.Error())
	default:
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
	}
	return false
}

// ownerID returns the authenticated owner, writing a 401 when there is none.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := auth.OwnerID(r.Context())
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return "", false
	}
	return owner, true
}

// listInput reads ?cursor= and ?limit= for the owner's collection.
// Limits above the maximum are capped; a missing limit uses the default.
func listInput(w http.ResponseWriter, r *http.Request, owner string) (service.ListInput, bool) {
	q := r.URL.Query()
	in := service.ListInput{OwnerID: owner, Cursor: q.Get("cursor")}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return service.ListInput{}, false
		}
		in.Limit = limit
	}
	return in, true
}
