package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/khabaroff/portfolio-site/src/logging"
	"github.com/khabaroff/portfolio-site/src/metrics"
	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// Invalidation causes reported to metrics
const (
	causeLogout         = "logout"
	causeInvalidateUser = "invalidate_user"
	causeLogoutAll      = "force_logout_all"
	causeSweep          = "sweep"
)

// SessionRegistry owns the single authoritative session id of every admin.
// The stored id is the only thing consulted to decide whether a session is
// current; the event log is diagnostic.
type SessionRegistry struct {
	repo    repositories.AdminRepository
	events  repositories.LoginEventLog
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSessionRegistry creates a registry over the credential store.
// events and m may be nil.
func NewSessionRegistry(repo repositories.AdminRepository, events repositories.LoginEventLog, m *metrics.Metrics) *SessionRegistry {
	return &SessionRegistry{
		repo:    repo,
		events:  events,
		metrics: m,
		logger:  logging.NewLogger("session_registry"),
		now:     time.Now,
	}
}

// StartSession makes a fresh session id authoritative for username,
// overwriting any prior one in a single write.
func (r *SessionRegistry) StartSession(ctx context.Context, username string) (string, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return "", err
	}

	at := r.now().UTC()
	if err := r.repo.SetActiveSession(ctx, username, sessionID, at); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", r.explainMissing(ctx, username)
		}
		return "", fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	logging.SessionFields(r.logger.Info(), username, sessionID).Msg("session started")
	r.record(ctx, username, models.LoginEventLogin, sessionID, username)
	return sessionID, nil
}

// IsCurrent reports whether sessionID is the stored session of an active user.
// A missing or inactive user is an error, not a false mismatch.
func (r *SessionRegistry) IsCurrent(ctx context.Context, username, sessionID string) (bool, error) {
	admin, err := r.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	if !admin.IsActive {
		return false, ErrAccountInactive
	}
	return admin.HasSession(sessionID), nil
}

// InvalidateAll clears the stored session of username unconditionally
func (r *SessionRegistry) InvalidateAll(ctx context.Context, username, actor string) error {
	cleared, err := r.repo.ClearActiveSession(ctx, username, "")
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	if cleared {
		r.metrics.SessionsInvalidated(causeInvalidateUser, 1)
		r.record(ctx, username, models.LoginEventInvalidated, "", actor)
		r.logger.Info().Str("username", username).Str("actor", actor).Msg("sessions invalidated")
	}
	return nil
}

// InvalidateEveryUser clears every stored session in one bulk update and
// returns how many users had one.
func (r *SessionRegistry) InvalidateEveryUser(ctx context.Context, actor string) (int, error) {
	cleared, err := r.repo.ClearAllActiveSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	for _, username := range cleared {
		r.record(ctx, username, models.LoginEventInvalidatedAll, "", actor)
	}
	r.metrics.SessionsInvalidated(causeLogoutAll, len(cleared))
	r.logger.Warn().Str("actor", actor).Int("terminated", len(cleared)).Msg("all sessions invalidated")
	return len(cleared), nil
}

// EndSession clears the stored session only if it is still sessionID,
// so a superseded client logging out cannot end the newer session.
func (r *SessionRegistry) EndSession(ctx context.Context, username, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	cleared, err := r.repo.ClearActiveSession(ctx, username, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	if cleared {
		r.metrics.SessionsInvalidated(causeLogout, 1)
		r.record(ctx, username, models.LoginEventLogout, sessionID, username)
		logging.SessionFields(r.logger.Info(), username, sessionID).Msg("session ended")
	}
	return cleared, nil
}

// SweepExpired clears session ids whose login is older than ttl.
// Such sessions can no longer be presented with an unexpired token.
func (r *SessionRegistry) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := r.now().UTC().Add(-ttl)
	swept, err := r.repo.ClearSessionsStartedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	for _, username := range swept {
		r.record(ctx, username, models.LoginEventSwept, "", "sweeper")
	}
	r.metrics.SessionsInvalidated(causeSweep, len(swept))
	return len(swept), nil
}

// RecentEvents returns the newest session events of username
func (r *SessionRegistry) RecentEvents(ctx context.Context, username string, limit int) ([]models.LoginEvent, error) {
	if r.events == nil {
		return []models.LoginEvent{}, nil
	}
	events, err := r.events.Recent(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read session events: %w", err)
	}
	return events, nil
}

func (r *SessionRegistry) explainMissing(ctx context.Context, username string) error {
	admin, err := r.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	if !admin.IsActive {
		return ErrAccountInactive
	}
	// Reactivated between the write and the read; the caller may retry
	return fmt.Errorf("%w: account state changed during login", ErrRegistryUnavailable)
}

// record appends to the diagnostic log; failures never affect the caller
func (r *SessionRegistry) record(ctx context.Context, username string, kind models.LoginEventKind, sessionID, actor string) {
	if r.events == nil {
		return
	}
	event := models.LoginEvent{
		Username:      username,
		Kind:          kind,
		SessionPrefix: models.SessionPrefix(sessionID),
		Actor:         actor,
		At:            r.now().UTC(),
	}
	if err := r.events.Append(ctx, event); err != nil {
		r.logger.Warn().Err(err).Str("username", username).Str("kind", string(kind)).Msg("failed to record session event")
	}
}
