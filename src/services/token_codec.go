package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ClaimsVersion marks the current payload layout
	ClaimsVersion = 1

	// DefaultSessionTTL is how long an issued token stays valid
	DefaultSessionTTL = 7 * 24 * time.Hour

	// sessionIDBytes is the entropy of a session id before encoding
	sessionIDBytes = 32

	minSecretLength = 32
)

// SessionClaims is the signed payload of a session token.
// Claims are never mutated; a refresh issues a new token with a new session id.
type SessionClaims struct {
	Version   int    `json:"ver"`
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// ExpiresAtTime returns the expiry in UTC, or the zero time when unset
func (c *SessionClaims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time.UTC()
}

// TokenCodec issues and verifies HS256 session tokens
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenCodec creates a codec signing with secret
func NewTokenCodec(secret, issuer string) (*TokenCodec, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d characters", minSecretLength)
	}
	return &TokenCodec{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and verifying
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

// NewSessionID returns a URL-safe id carrying 32 random bytes
func NewSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue signs a token for username and sessionID valid for ttl
func (c *TokenCodec) Issue(username, sessionID string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := c.now()
	expiresAt := now.Add(ttl)
	claims := SessionClaims{
		Version:   ClaimsVersion,
		Username:  username,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	// The wire format carries whole seconds
	return signed, claims.ExpiresAtTime(), nil
}

// Verify checks signature and expiry and returns the claims.
// Errors wrap ErrTokenMalformed, ErrTokenInvalidSignature or ErrTokenExpired.
func (c *TokenCodec) Verify(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Version != ClaimsVersion {
		return nil, fmt.Errorf("%w: unsupported claims version %d", ErrTokenMalformed, claims.Version)
	}
	if claims.Username == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session claims", ErrTokenMalformed)
	}

	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		// Missing exp, wrong issuer, not-yet-valid: all structural problems
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// TokenFailureKind names the codec error for logs and metrics
func TokenFailureKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
