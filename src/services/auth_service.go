package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/portfolio-site/src/logging"
	"github.com/khabaroff/portfolio-site/src/metrics"
	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// Reasons reported by the session status check
const (
	ReasonNoToken      = "No session token"
	ReasonInvalidToken = "Invalid or expired token"
	ReasonSuperseded   = "Session replaced by newer login"
	ReasonUserInactive = "User not found or inactive"
)

// LoginResult is what a successful login hands to the transport layer
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	SessionID string
	Profile   models.Profile
}

// SessionStatus is the answer to "is this token still the current session?"
type SessionStatus struct {
	Valid     bool      `json:"valid"`
	Reason    string    `json:"reason,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Username  string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// AuthService handles admin login, logout and session status
type AuthService struct {
	repo      repositories.AdminRepository
	registry  *SessionRegistry
	codec     *TokenCodec
	analytics *AnalyticsService
	metrics   *metrics.Metrics
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// AuthConfig holds the collaborators of the auth service
type AuthConfig struct {
	Repo       repositories.AdminRepository
	Registry   *SessionRegistry
	Codec      *TokenCodec
	Analytics  *AnalyticsService
	Metrics    *metrics.Metrics
	SessionTTL time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg AuthConfig) *AuthService {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		repo:      cfg.Repo,
		registry:  cfg.Registry,
		codec:     cfg.Codec,
		analytics: cfg.Analytics,
		metrics:   cfg.Metrics,
		ttl:       ttl,
		logger:    logging.NewLogger("auth_service"),
		now:       time.Now,
	}
}

// SessionTTL returns the lifetime of issued tokens
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Login checks credentials and makes a new session authoritative.
// An existing but deactivated account is refused with ErrAccountDeactivated
// before the password is compared; unknown users and wrong passwords both
// get ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		s.metrics.Login(metrics.LoginMissing)
		return nil, ErrMissingCredentials
	}

	admin, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.metrics.Login(metrics.LoginInvalid)
			s.logger.Info().Str("username", username).Msg("login failed: unknown user")
			return nil, ErrInvalidCredentials
		}
		s.metrics.Login(metrics.LoginError)
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	if !admin.IsActive {
		s.metrics.Login(metrics.LoginDeactivated)
		s.logger.Warn().Str("username", username).Msg("login refused: account deactivated")
		return nil, ErrAccountDeactivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.metrics.Login(metrics.LoginInvalid)
		s.logger.Info().Str("username", username).Msg("login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	sessionID, err := s.registry.StartSession(ctx, username)
	if err != nil {
		s.metrics.Login(metrics.LoginError)
		if errors.Is(err, ErrAccountInactive) {
			return nil, ErrAccountDeactivated
		}
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, expiresAt, err := s.codec.Issue(username, sessionID, s.ttl)
	if err != nil {
		s.metrics.Login(metrics.LoginError)
		return nil, err
	}

	s.metrics.Login(metrics.LoginSuccess)
	s.analytics.TrackAdminLogin(ctx, username)

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		SessionID: sessionID,
		Profile:   admin.Profile(),
	}, nil
}

// CheckSession reports whether token is the current session of its user.
// The only error it returns wraps ErrRegistryUnavailable; every other outcome
// is a status with a reason.
func (s *AuthService) CheckSession(ctx context.Context, token string) (SessionStatus, error) {
	status := SessionStatus{Timestamp: s.now().UTC()}

	if token == "" {
		s.metrics.SessionCheck(metrics.CheckNoToken)
		status.Reason = ReasonNoToken
		return status, nil
	}

	claims, err := s.codec.Verify(token)
	if err != nil {
		s.metrics.SessionCheck(metrics.CheckInvalid)
		s.metrics.TokenFailure(TokenFailureKind(err))
		s.logger.Debug().Str("kind", TokenFailureKind(err)).Msg("session check: token rejected")
		status.Reason = ReasonInvalidToken
		return status, nil
	}

	status.SessionID = claims.SessionID
	status.Username = claims.Username

	current, err := s.registry.IsCurrent(ctx, claims.Username, claims.SessionID)
	switch {
	case errors.Is(err, ErrRegistryUnavailable):
		s.metrics.SessionCheck(metrics.CheckUnavailable)
		return status, err
	case err != nil:
		s.metrics.SessionCheck(metrics.CheckUserMissing)
		status.Reason = ReasonUserInactive
		return status, nil
	case !current:
		s.metrics.SessionCheck(metrics.CheckSuperseded)
		logging.SessionFields(s.logger.Info(), claims.Username, claims.SessionID).Msg("session superseded")
		status.Reason = ReasonSuperseded
		return status, nil
	}

	s.metrics.SessionCheck(metrics.CheckValid)
	status.Valid = true
	return status, nil
}

// Logout ends the caller's session if it is still the current one.
// It is idempotent and never fails on a bad or missing token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.codec.Verify(token)
	if err != nil {
		// Expired or foreign tokens have nothing server-side to clear
		return nil
	}

	_, err = s.registry.EndSession(ctx, claims.Username, claims.SessionID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	return nil
}

// ForceLogoutAll clears every admin's session, the actor's included
func (s *AuthService) ForceLogoutAll(ctx context.Context, actor string) (int, error) {
	n, err := s.registry.InvalidateEveryUser(ctx, actor)
	if err != nil {
		return 0, err
	}
	s.analytics.TrackForceLogoutAll(ctx, actor, n)
	return n, nil
}
