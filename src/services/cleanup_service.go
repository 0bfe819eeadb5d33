package services

import (
	"context"
	"sync"
	"time"

	"github.com/khabaroff/portfolio-site/src/logging"
)

// CleanupService periodically clears session ids that outlived their tokens
type CleanupService struct {
	registry *SessionRegistry
	ttl      time.Duration
	enabled  bool
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewCleanupService creates a new session sweeper.
// A non-positive interval disables it.
func NewCleanupService(registry *SessionRegistry, ttl, interval time.Duration) *CleanupService {
	return &CleanupService{
		registry: registry,
		ttl:      ttl,
		enabled:  interval > 0,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until ctx ends or Stop is called
func (cs *CleanupService) Start(ctx context.Context) {
	logger := logging.NewLogger("cleanup_service")
	if !cs.enabled {
		logger.Info().Msg("session sweeper is disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		cs.cleanup(ctx)
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("session sweeper stopped")
				return
			case <-cs.done:
				logger.Info().Msg("session sweeper stopped")
				return
			case <-ticker.C:
				cs.cleanup(ctx)
			}
		}
	}()

	logger.Info().Dur("interval", cs.interval).Msg("session sweeper started")
}

// Stop stops the sweeper; calling it more than once is safe
func (cs *CleanupService) Stop() {
	cs.stopOnce.Do(func() { close(cs.done) })
}

// cleanup performs one sweep
func (cs *CleanupService) cleanup(ctx context.Context) {
	logger := logging.NewLogger("cleanup_service")

	swept, err := cs.registry.SweepExpired(ctx, cs.ttl)
	if err != nil {
		logger.Error().Err(err).Msg("session sweep failed")
		return
	}
	if swept > 0 {
		logger.Info().Int("swept", swept).Msg("cleared expired sessions")
	}
}

// SweepNow runs a sweep synchronously and returns how many sessions were cleared
func (cs *CleanupService) SweepNow(ctx context.Context) (int, error) {
	return cs.registry.SweepExpired(ctx, cs.ttl)
}
