package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/khabaroff/portfolio-site/src/config"
	"github.com/khabaroff/portfolio-site/src/database"
	"github.com/khabaroff/portfolio-site/src/handlers"
	"github.com/khabaroff/portfolio-site/src/repositories"
	"github.com/khabaroff/portfolio-site/src/repositories/memory"
	mongorepo "github.com/khabaroff/portfolio-site/src/repositories/mongo"
	pgrepo "github.com/khabaroff/portfolio-site/src/repositories/postgres"
	redisrepo "github.com/khabaroff/portfolio-site/src/repositories/redis"
)

// eventRetentionFactor keeps a user's event ring alive for a few session lifetimes
const eventRetentionFactor = 4

// stores holds the credential store and event log chosen by configuration
type stores struct {
	admins  repositories.AdminRepository
	events  repositories.LoginEventLog
	health  map[string]handlers.Pinger
	closers []func()
}

// openStores connects the backends named by STORE_DRIVER and REDIS_URL
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s := &stores{health: make(map[string]handlers.Pinger)}

	switch cfg.StoreDriver {
	case config.StoreMongo:
		m, err := database.NewMongo(ctx, cfg.MongoURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo: %w", err)
		}
		s.admins = mongorepo.NewAdminRepository(m.AdminUsers())
		s.health["mongo"] = m
		s.closers = append(s.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = m.Close(closeCtx)
		})
		log.Info().Msg("mongo credential store connected")

	case config.StorePostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.admins = pgrepo.NewAdminRepository(db.GetPool())
		s.health["postgres"] = db
		s.closers = append(s.closers, db.Close)
		log.Info().Msg("postgres credential store connected")

	case config.StoreMemory:
		s.admins = memory.NewAdminRepository()
		log.Warn().Msg("in-memory credential store: accounts are lost on restart")

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisURL != "" {
		r, err := database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		s.events = redisrepo.NewLoginEventLog(r.Client(), cfg.LoginEventsPerUser, eventRetentionFactor*cfg.SessionTTL)
		s.health["redis"] = r
		s.closers = append(s.closers, func() { _ = r.Close() })
		log.Info().Msg("redis login event log connected")
	} else {
		s.events = memory.NewLoginEventLog(cfg.LoginEventsPerUser)
	}

	return s, nil
}

// Close releases every backend in reverse order
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
