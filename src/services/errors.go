package services

import "errors"

// Sentinel errors for explicit error handling
// These errors allow callers to distinguish between different failure modes
// using errors.Is() instead of string matching

var (
	// ErrTokenMalformed indicates the token cannot be decoded into session claims
	ErrTokenMalformed = errors.New("malformed session token")

	// ErrTokenInvalidSignature indicates the token was not signed with our key
	ErrTokenInvalidSignature = errors.New("invalid session token signature")

	// ErrTokenExpired indicates the token is past its expiry
	ErrTokenExpired = errors.New("session token expired")

	// ErrInvalidCredentials indicates authentication failed
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDeactivated indicates the credentials matched a deactivated account
	ErrAccountDeactivated = errors.New("account deactivated")

	// ErrMissingCredentials indicates username or password was empty
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrSessionSuperseded indicates a newer login replaced the session
	ErrSessionSuperseded = errors.New("session replaced by newer login")

	// ErrUserNotFound indicates the user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountInactive indicates the user exists but may not hold a session
	ErrAccountInactive = errors.New("account inactive")

	// ErrRegistryUnavailable indicates the session store could not be reached
	ErrRegistryUnavailable = errors.New("session registry unavailable")

	// ErrNoSession indicates the request carries no usable session
	ErrNoSession = errors.New("no valid session")
)
