// Package handlers contains the plain HTTP endpoints: service info, health,
// and the public room listing. Gameplay itself happens over WebSocket.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/butteredsaltedtoast/blitztactoe/internal/room"
	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store    store.GameStore
	registry *room.Registry
}

// NewHandler creates a new Handler with the given store and registry.
func NewHandler(st store.GameStore, reg *room.Registry) *Handler {
	return &Handler{store: st, registry: reg}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
