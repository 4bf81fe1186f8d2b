package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/butteredsaltedtoast/blitztactoe/internal/api"
	"github.com/butteredsaltedtoast/blitztactoe/internal/config"
	"github.com/butteredsaltedtoast/blitztactoe/internal/room"
	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Pick the game store: Redis when configured, SQLite otherwise
	var gameStore store.GameStore
	if cfg.RedisURL != "" {
		st, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		gameStore = st
		logger.Info().Msg("connected to Redis")
	} else {
		st, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		gameStore = st
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	}
	defer gameStore.Close()

	// Room registry and coordinator
	registry := room.NewRegistry(gameStore, logger, cfg.MaxRooms)
	coord := room.NewCoordinator(registry, gameStore, logger)

	// Background reaper for dead rooms
	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go coord.RunReaper(reaperCtx, cfg.ReapInterval, cfg.IdleWindow)

	// Create router
	router := api.NewRouter(logger, gameStore, coord)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Int("max_rooms", cfg.MaxRooms).
			Msg("starting blitztactoe server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	stopReaper()

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
