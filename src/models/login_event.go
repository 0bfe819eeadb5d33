package models

import "time"

// LoginEventKind classifies an entry in the per-user session event log
type LoginEventKind string

const (
	// LoginEventLogin is recorded when a new session becomes authoritative
	LoginEventLogin LoginEventKind = "login"
	// LoginEventLogout is recorded when the current session logs out
	LoginEventLogout LoginEventKind = "logout"
	// LoginEventInvalidated is recorded when all sessions of one user are cleared
	LoginEventInvalidated LoginEventKind = "invalidated"
	// LoginEventInvalidatedAll is recorded for every user hit by a global logout
	LoginEventInvalidatedAll LoginEventKind = "invalidated_all"
	// LoginEventSwept is recorded when an expired session id is cleared by the sweeper
	LoginEventSwept LoginEventKind = "swept"
)

// LoginEvent is a diagnostic record of a session lifecycle change.
// It is never consulted when deciding whether a session is current.
type LoginEvent struct {
	Username      string         `json:"username"`
	Kind          LoginEventKind `json:"kind"`
	SessionPrefix string         `json:"session_prefix,omitempty"`
	Actor         string         `json:"actor,omitempty"`
	At            time.Time      `json:"at"`
}

// SessionPrefix shortens a session id for logs and event records
func SessionPrefix(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}
