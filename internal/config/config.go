package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port       string
	Env        string
	RedisURL   string
	SQLitePath string

	// Room lifecycle
	MaxRooms     int
	IdleWindow   time.Duration
	ReapInterval time.Duration
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		RedisURL:     os.Getenv("REDIS_URL"),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/blitztactoe.db"),
		MaxRooms:     getEnvInt("MAX_ROOMS", 10000),
		IdleWindow:   getEnvDuration("ROOM_IDLE_WINDOW_SECONDS", 3600),
		ReapInterval: getEnvDuration("ROOM_REAP_INTERVAL_SECONDS", 60),
	}

	// In production, require redis; the SQLite fallback is development-only
	if cfg.Env == "production" && cfg.RedisURL == "" {
		panic("REDIS_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
