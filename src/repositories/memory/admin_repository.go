// Package memory holds process-local implementations of the repositories.
// They are meant for tests and single-instance development; state is lost on
// restart and is not shared between server instances.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// AdminRepository keeps admin accounts in a map guarded by a mutex.
// Each method holds the lock for its whole update, mirroring the
// single-document atomicity of the real stores.
type AdminRepository struct {
	mu     sync.Mutex
	admins map[string]*models.AdminUser
}

// NewAdminRepository creates an empty in-memory admin repository
func NewAdminRepository() *AdminRepository {
	return &AdminRepository{admins: make(map[string]*models.AdminUser)}
}

func (r *AdminRepository) Create(_ context.Context, admin *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.admins[admin.Username]; ok {
		return repositories.ErrAlreadyExists
	}
	r.admins[admin.Username] = cloneAdmin(admin)
	return nil
}

func (r *AdminRepository) GetByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[username]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneAdmin(admin), nil
}

func (r *AdminRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.admins)), nil
}

func (r *AdminRepository) SetActive(_ context.Context, username string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[username]
	if !ok {
		return repositories.ErrNotFound
	}
	admin.IsActive = active
	admin.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *AdminRepository) SetActiveSession(_ context.Context, username, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[username]
	if !ok || !admin.IsActive {
		return repositories.ErrNotFound
	}
	sid := sessionID
	loginAt := at
	admin.ActiveSessionID = &sid
	admin.LastLoginAt = &loginAt
	admin.UpdatedAt = at
	return nil
}

func (r *AdminRepository) ClearActiveSession(_ context.Context, username, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[username]
	if !ok {
		return false, repositories.ErrNotFound
	}
	if admin.ActiveSessionID == nil {
		return false, nil
	}
	if sessionID != "" && *admin.ActiveSessionID != sessionID {
		return false, nil
	}
	admin.ActiveSessionID = nil
	admin.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *AdminRepository) ClearAllActiveSessions(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var cleared []string
	for name, admin := range r.admins {
		if admin.ActiveSessionID == nil {
			continue
		}
		admin.ActiveSessionID = nil
		admin.UpdatedAt = now
		cleared = append(cleared, name)
	}
	sort.Strings(cleared)
	return cleared, nil
}

func (r *AdminRepository) ClearSessionsStartedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var cleared []string
	for name, admin := range r.admins {
		if admin.ActiveSessionID == nil || admin.LastLoginAt == nil || !admin.LastLoginAt.Before(cutoff) {
			continue
		}
		admin.ActiveSessionID = nil
		admin.UpdatedAt = now
		cleared = append(cleared, name)
	}
	sort.Strings(cleared)
	return cleared, nil
}

func cloneAdmin(a *models.AdminUser) *models.AdminUser {
	c := *a
	if a.ActiveSessionID != nil {
		sid := *a.ActiveSessionID
		c.ActiveSessionID = &sid
	}
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

var _ repositories.AdminRepository = (*AdminRepository)(nil)
