package handlers

import "net/http"

// ListRooms handles GET /api/rooms: public rooms with an open seat.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	listing := h.registry.Listing()
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"rooms": listing,
		"count": len(listing),
	})
}

// Root handles GET /: service info for anyone poking at the API.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"service": "blitztactoe",
		"version": version,
		"endpoints": map[string]string{
			"websocket": "/ws/{roomID}",
			"rooms":     "/api/rooms",
			"health":    "/health",
			"metrics":   "/metrics",
		},
	})
}
