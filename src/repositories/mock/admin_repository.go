package mock

import (
	"context"
	"time"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// AdminRepository is a mock implementation of repositories.AdminRepository
type AdminRepository struct {
	// Function stubs that can be overridden in tests
	CreateFunc                     func(ctx context.Context, admin *models.AdminUser) error
	GetByUsernameFunc              func(ctx context.Context, username string) (*models.AdminUser, error)
	CountFunc                      func(ctx context.Context) (int64, error)
	SetActiveFunc                  func(ctx context.Context, username string, active bool) error
	SetActiveSessionFunc           func(ctx context.Context, username, sessionID string, at time.Time) error
	ClearActiveSessionFunc         func(ctx context.Context, username, sessionID string) (bool, error)
	ClearAllActiveSessionsFunc     func(ctx context.Context) ([]string, error)
	ClearSessionsStartedBeforeFunc func(ctx context.Context, cutoff time.Time) ([]string, error)

	// Call tracking
	Calls map[string][]interface{}
}

// NewAdminRepository creates a new mock admin repository
func NewAdminRepository() *AdminRepository {
	return &AdminRepository{
		Calls: make(map[string][]interface{}),
	}
}

// Mutations returns the number of recorded calls that write to the store
func (m *AdminRepository) Mutations() int {
	n := 0
	for _, name := range []string{"Create", "SetActive", "SetActiveSession", "ClearActiveSession", "ClearAllActiveSessions", "ClearSessionsStartedBefore"} {
		n += len(m.Calls[name])
	}
	return n
}

func (m *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	m.Calls["Create"] = append(m.Calls["Create"], admin)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, admin)
	}
	return nil
}

func (m *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	m.Calls["GetByUsername"] = append(m.Calls["GetByUsername"], username)
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, repositories.ErrNotFound
}

func (m *AdminRepository) Count(ctx context.Context) (int64, error) {
	m.Calls["Count"] = append(m.Calls["Count"], nil)
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *AdminRepository) SetActive(ctx context.Context, username string, active bool) error {
	m.Calls["SetActive"] = append(m.Calls["SetActive"], []interface{}{username, active})
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, username, active)
	}
	return nil
}

func (m *AdminRepository) SetActiveSession(ctx context.Context, username, sessionID string, at time.Time) error {
	m.Calls["SetActiveSession"] = append(m.Calls["SetActiveSession"], []interface{}{username, sessionID, at})
	if m.SetActiveSessionFunc != nil {
		return m.SetActiveSessionFunc(ctx, username, sessionID, at)
	}
	return nil
}

func (m *AdminRepository) ClearActiveSession(ctx context.Context, username, sessionID string) (bool, error) {
	m.Calls["ClearActiveSession"] = append(m.Calls["ClearActiveSession"], []interface{}{username, sessionID})
	if m.ClearActiveSessionFunc != nil {
		return m.ClearActiveSessionFunc(ctx, username, sessionID)
	}
	return true, nil
}

func (m *AdminRepository) ClearAllActiveSessions(ctx context.Context) ([]string, error) {
	m.Calls["ClearAllActiveSessions"] = append(m.Calls["ClearAllActiveSessions"], nil)
	if m.ClearAllActiveSessionsFunc != nil {
		return m.ClearAllActiveSessionsFunc(ctx)
	}
	return nil, nil
}

func (m *AdminRepository) ClearSessionsStartedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	m.Calls["ClearSessionsStartedBefore"] = append(m.Calls["ClearSessionsStartedBefore"], cutoff)
	if m.ClearSessionsStartedBeforeFunc != nil {
		return m.ClearSessionsStartedBeforeFunc(ctx, cutoff)
	}
	return nil, nil
}

// Ensure AdminRepository implements the interface
var _ repositories.AdminRepository = (*AdminRepository)(nil)
