package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/posthog/posthog-go"
	"github.com/rs/zerolog/log"
)

// HashUsername returns a hex-encoded SHA-256 hash of the username for use as PostHog distinct ID
func HashUsername(username string) string {
	h := sha256.Sum256([]byte(username))
	return fmt.Sprintf("%x", h)
}

// AnalyticsService tracks admin activity in PostHog.
// A nil or disabled service accepts every call and sends nothing.
type AnalyticsService struct {
	client      posthog.Client
	enabled     bool
	environment string
}

type posthogLogger struct{}

func (l posthogLogger) Success(m posthog.APIMessage) {
	log.Debug().Str("type", fmt.Sprintf("%T", m)).Msg("PostHog event delivered")
}

func (l posthogLogger) Failure(m posthog.APIMessage, err error) {
	log.Error().Err(err).Str("type", fmt.Sprintf("%T", m)).Msg("PostHog delivery failed")
}

// AnalyticsConfig holds analytics configuration
type AnalyticsConfig struct {
	PostHogAPIKey string
	PostHogHost   string
	Enabled       bool
	Environment   string
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(cfg AnalyticsConfig) (*AnalyticsService, error) {
	if !cfg.Enabled || cfg.PostHogAPIKey == "" {
		return &AnalyticsService{enabled: false}, nil
	}

	client, err := posthog.NewWithConfig(
		cfg.PostHogAPIKey,
		posthog.Config{
			Endpoint:  cfg.PostHogHost,
			Interval:  30 * time.Second,
			BatchSize: 100,
			Callback:  posthogLogger{},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}

	return NewAnalyticsServiceWithClient(client, cfg.Environment), nil
}

// NewAnalyticsServiceWithClient wraps an existing client (for testing)
func NewAnalyticsServiceWithClient(client posthog.Client, environment string) *AnalyticsService {
	if environment == "" {
		environment = "production"
	}
	return &AnalyticsService{client: client, enabled: true, environment: environment}
}

// Close flushes pending events and closes client
func (s *AnalyticsService) Close() error {
	if s == nil || !s.enabled {
		return nil
	}
	return s.client.Close()
}

// TrackEvent captures a generic event
func (s *AnalyticsService) TrackEvent(ctx context.Context, distinctID, event string, properties map[string]interface{}) {
	if s == nil || !s.enabled {
		return
	}

	if properties == nil {
		properties = make(map[string]interface{})
	}
	properties["timestamp"] = time.Now().Unix()
	properties["environment"] = s.environment

	if err := s.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	}); err != nil {
		log.Error().Err(err).Str("event", event).Msg("PostHog enqueue failed")
	}
}

// TrackAdminLogin tracks a successful admin login
func (s *AnalyticsService) TrackAdminLogin(ctx context.Context, username string) {
	s.TrackEvent(ctx, "admin_"+HashUsername(username), "admin_login", nil)
}

// TrackForceLogoutAll tracks a global session termination
func (s *AnalyticsService) TrackForceLogoutAll(ctx context.Context, actor string, terminated int) {
	s.TrackEvent(ctx, "admin_"+HashUsername(actor), "admin_force_logout_all", map[string]interface{}{
		"sessions_terminated": terminated,
	})
}
