package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/butteredsaltedtoast/blitztactoe/internal/metrics"
)

// RedisStore persists room records in Redis, one JSON value per room.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed game store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// gameKey returns the key for a room's durable record.
func gameKey(roomID string) string {
	return fmt.Sprintf("game:%s", roomID)
}

// Save writes the room record.
func (s *RedisStore) Save(ctx context.Context, roomID string, rec *Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.client.Set(ctx, gameKey(roomID), data, 0).Err()
	metrics.StoreLatency.Observe(time.Since(start).Seconds())
	return err
}

// Load reads the room record, returning (nil, nil) on a miss.
func (s *RedisStore) Load(ctx context.Context, roomID string) (*Record, error) {
	start := time.Now()
	data, err := s.client.Get(ctx, gameKey(roomID)).Bytes()
	metrics.StoreLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return Decode(data)
}

// Delete removes the room record.
func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, gameKey(roomID)).Err()
}
