package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the client used for the login event ring buffers
type Redis struct {
	client *redis.Client
}

// NewRedis parses a redis:// URL and fails fast when the server does not answer PING
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client}, nil
}

// Client returns the underlying go-redis client
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Close closes the client
func (r *Redis) Close() error {
	return r.client.Close()
}

// Health pings the server
func (r *Redis) Health(ctx context.Context) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis connection not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}
