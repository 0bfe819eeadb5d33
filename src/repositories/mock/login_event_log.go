package mock

import (
	"context"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// LoginEventLog is a mock implementation of repositories.LoginEventLog
type LoginEventLog struct {
	AppendFunc func(ctx context.Context, event models.LoginEvent) error
	RecentFunc func(ctx context.Context, username string, limit int) ([]models.LoginEvent, error)

	Events []models.LoginEvent
}

// NewLoginEventLog creates a new mock event log that records appended events
func NewLoginEventLog() *LoginEventLog {
	return &LoginEventLog{}
}

func (m *LoginEventLog) Append(ctx context.Context, event models.LoginEvent) error {
	m.Events = append(m.Events, event)
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, event)
	}
	return nil
}

func (m *LoginEventLog) Recent(ctx context.Context, username string, limit int) ([]models.LoginEvent, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, username, limit)
	}
	return nil, nil
}

var _ repositories.LoginEventLog = (*LoginEventLog)(nil)
