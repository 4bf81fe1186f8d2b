package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/butteredsaltedtoast/blitztactoe/internal/metrics"
)

// SQLiteStore persists room records in a local SQLite database. It exists for
// development and single-node deployments where Redis is not configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed game store.
// If dbPath is empty, defaults to "./data/blitztactoe.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/blitztactoe.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates the games table if it doesn't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		room_id TEXT PRIMARY KEY,
		record TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save writes the room record.
func (s *SQLiteStore) Save(ctx context.Context, roomID string, rec *Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (room_id, record, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`, roomID, string(data), time.Now())
	metrics.StoreLatency.Observe(time.Since(start).Seconds())
	return err
}

// Load reads the room record, returning (nil, nil) on a miss.
func (s *SQLiteStore) Load(ctx context.Context, roomID string) (*Record, error) {
	var data string
	start := time.Now()
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM games WHERE room_id = ?
	`, roomID).Scan(&data)
	metrics.StoreLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return Decode([]byte(data))
}

// Delete removes the room record.
func (s *SQLiteStore) Delete(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE room_id = ?`, roomID)
	return err
}
