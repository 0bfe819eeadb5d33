package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/khabaroff/portfolio-site/src/models"
)

var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a uniqueness conflict (e.g. username taken)
	ErrAlreadyExists = errors.New("record already exists")
)

// AdminRepository is the Credential Store: admin accounts plus the
// authoritative session id of each account.
//
// Session mutations are single-document updates so that concurrent logins
// for the same username resolve as last-writer-wins.
type AdminRepository interface {
	Create(ctx context.Context, admin *models.AdminUser) error
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	Count(ctx context.Context) (int64, error)
	SetActive(ctx context.Context, username string, active bool) error

	// SetActiveSession stores sessionID as the authoritative session and
	// lastLoginAt=at. Only active accounts match; otherwise ErrNotFound.
	SetActiveSession(ctx context.Context, username, sessionID string, at time.Time) error

	// ClearActiveSession clears the session id. With a non-empty sessionID it
	// only clears when the stored id still equals it. Returns whether a
	// session was cleared; ErrNotFound when the username does not exist.
	ClearActiveSession(ctx context.Context, username, sessionID string) (bool, error)

	// ClearAllActiveSessions clears the session id of every account and
	// returns the usernames that had one.
	ClearAllActiveSessions(ctx context.Context) ([]string, error)

	// ClearSessionsStartedBefore clears session ids whose login happened
	// before cutoff and returns the affected usernames.
	ClearSessionsStartedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// LoginEventLog is a bounded per-user ring buffer of session events
type LoginEventLog interface {
	Append(ctx context.Context, event models.LoginEvent) error
	// Recent returns at most limit events, newest first
	Recent(ctx context.Context, username string, limit int) ([]models.LoginEvent, error)
}
