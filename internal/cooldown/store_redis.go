package cooldown

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyInflightPrefix = "wl:inflight:"

// Store is a redis-backed per-user in-flight guard for the command
// boundary. A whitelist fan-out can block for tens of seconds; while
// one run is active, further link/unlink commands from the same user
// are refused cheaply instead of interleaving workflows.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// Dial parses a redis URL, connects, and verifies the connection.
func Dial(redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewStore wraps an existing client. ttl bounds how long a crashed run
// can keep a user locked out.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) key(chatID uint64) string {
	return fmt.Sprintf("%s%d", keyInflightPrefix, chatID)
}

// Acquire takes the guard for chatID. Returns false when a run is
// already active for that user.
func (s *Store) Acquire(ctx context.Context, chatID uint64) (bool, error) {
	if s == nil || s.rdb == nil {
		return true, nil
	}
	return s.rdb.SetNX(ctx, s.key(chatID), "1", s.ttl).Result()
}

// Release frees the guard. Safe to call when the key already expired.
func (s *Store) Release(ctx context.Context, chatID uint64) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, s.key(chatID)).Err()
}
