package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blitztactoe_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blitztactoe_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Game metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blitztactoe_connections_active",
			Help: "Currently open WebSocket connections",
		},
	)

	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blitztactoe_rooms_active",
			Help: "Rooms currently held in the registry",
		},
	)

	MovesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blitztactoe_moves_total",
			Help: "Total accepted moves",
		},
	)

	GamesFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blitztactoe_games_finished_total",
			Help: "Total finished games",
		},
		[]string{"outcome"}, // "win", "draw", "forfeit"
	)

	TurnTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blitztactoe_turn_timeouts_total",
			Help: "Turn timer expirations that passed the turn",
		},
	)

	RoomsReaped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blitztactoe_rooms_reaped_total",
			Help: "Rooms evicted by the idle reaper",
		},
		[]string{"reason"}, // "empty" or "idle"
	)

	// Transport metrics
	MessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blitztactoe_messages_dropped_total",
			Help: "Broadcast messages dropped on full client send buffers",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blitztactoe_rate_limit_hits_total",
			Help: "Client messages discarded by the per-connection rate limit",
		},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blitztactoe_store_latency_seconds",
			Help:    "Persistence gateway operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)

	StoreFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blitztactoe_store_failures_total",
			Help: "Persistence gateway operations that failed and were swallowed",
		},
	)
)
