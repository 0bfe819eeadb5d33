// Package redis keeps the per-user login event ring buffers in Redis lists
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

const defaultPrefix = "auth:events:"

// LoginEventLog pushes events on the head of a list and trims it to capacity
// in the same transaction, so each list is a bounded newest-first ring.
type LoginEventLog struct {
	rdb      *goredis.Client
	prefix   string
	capacity int
	ttl      time.Duration
}

// NewLoginEventLog creates a Redis backed event log.
// Lists expire ttl after their last write; zero keeps them forever.
func NewLoginEventLog(rdb *goredis.Client, capacity int, ttl time.Duration) *LoginEventLog {
	if capacity <= 0 {
		capacity = 20
	}
	return &LoginEventLog{rdb: rdb, prefix: defaultPrefix, capacity: capacity, ttl: ttl}
}

func (l *LoginEventLog) key(username string) string { return l.prefix + username }

func (l *LoginEventLog) Append(ctx context.Context, event models.LoginEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode login event: %w", err)
	}

	key := l.key(event.Username)
	pipe := l.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(l.capacity-1))
	if l.ttl > 0 {
		pipe.Expire(ctx, key, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append login event: %w", err)
	}
	return nil
}

func (l *LoginEventLog) Recent(ctx context.Context, username string, limit int) ([]models.LoginEvent, error) {
	if limit <= 0 || limit > l.capacity {
		limit = l.capacity
	}

	raw, err := l.rdb.LRange(ctx, l.key(username), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read login events: %w", err)
	}

	events := make([]models.LoginEvent, 0, len(raw))
	for _, item := range raw {
		var e models.LoginEvent
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			// Skip entries written by an incompatible version
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

var _ repositories.LoginEventLog = (*LoginEventLog)(nil)
