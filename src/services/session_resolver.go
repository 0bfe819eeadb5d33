package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/khabaroff/portfolio-site/src/logging"
	"github.com/khabaroff/portfolio-site/src/metrics"
)

// SessionResolver turns a raw token into a current session or a reason it is not one.
// Every failure other than storage unavailability wraps ErrNoSession, with the
// precise cause kept for logs.
type SessionResolver struct {
	codec    *TokenCodec
	registry *SessionRegistry
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewSessionResolver creates a resolver
func NewSessionResolver(codec *TokenCodec, registry *SessionRegistry, m *metrics.Metrics) *SessionResolver {
	return &SessionResolver{
		codec:    codec,
		registry: registry,
		metrics:  m,
		logger:   logging.NewLogger("session_resolver"),
	}
}

// Resolve verifies the token and checks it against the registry.
// Errors wrap ErrNoSession (with the cause) or ErrRegistryUnavailable.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*SessionClaims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: no token", ErrNoSession)
	}

	claims, err := r.codec.Verify(token)
	if err != nil {
		r.metrics.TokenFailure(TokenFailureKind(err))
		r.logger.Debug().Str("kind", TokenFailureKind(err)).Msg("token rejected")
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}

	current, err := r.registry.IsCurrent(ctx, claims.Username, claims.SessionID)
	switch {
	case errors.Is(err, ErrRegistryUnavailable):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	case !current:
		return nil, fmt.Errorf("%w: %w", ErrNoSession, ErrSessionSuperseded)
	}

	return claims, nil
}
