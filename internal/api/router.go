// Package api wires the HTTP surface: middleware stack, REST endpoints,
// Prometheus scraping, and the WebSocket game endpoint.
package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/butteredsaltedtoast/blitztactoe/internal/api/middleware"
	"github.com/butteredsaltedtoast/blitztactoe/internal/handlers"
	"github.com/butteredsaltedtoast/blitztactoe/internal/room"
	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
	"github.com/butteredsaltedtoast/blitztactoe/internal/ws"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, st store.GameStore, coord *room.Coordinator) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - rooms are joined by shareable link from any origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(st, coord.Registry())
	wsHandler := ws.NewHandler(coord, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/api/rooms", h.ListRooms)
	r.Get("/ws/{roomID}", wsHandler.Serve)

	return r
}
