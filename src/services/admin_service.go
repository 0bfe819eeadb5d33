package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/portfolio-site/src/logging"
	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// ErrAdminExists indicates the username is already taken
var ErrAdminExists = errors.New("admin user already exists")

// AdminService handles admin account management
type AdminService struct {
	repo       repositories.AdminRepository
	registry   *SessionRegistry
	bcryptCost int
}

// NewAdminService creates a new admin service
func NewAdminService(repo repositories.AdminRepository, registry *SessionRegistry) *AdminService {
	return &AdminService{repo: repo, registry: registry, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost (tests use bcrypt.MinCost)
func (as *AdminService) WithBcryptCost(cost int) *AdminService {
	as.bcryptCost = cost
	return as
}

// CreateAdminUser creates a new admin user with hashed password
func (as *AdminService) CreateAdminUser(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if len(username) < 1 || len(username) > 255 {
		return nil, errors.New("username must be between 1 and 255 characters")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &models.AdminUser{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := as.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return nil, ErrAdminExists
		}
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	return admin, nil
}

// HasAdmins checks if any admin users exist
func (as *AdminService) HasAdmins(ctx context.Context) (bool, error) {
	count, err := as.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check admin users: %w", err)
	}
	return count > 0, nil
}

// SeedAdmin creates the first admin when the store is empty.
// It reports whether an account was created.
func (as *AdminService) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	hasAdmins, err := as.HasAdmins(ctx)
	if err != nil {
		return false, err
	}
	if hasAdmins {
		return false, nil
	}

	if _, err := as.CreateAdminUser(ctx, username, password); err != nil {
		return false, err
	}
	return true, nil
}

// GetAdminByUsername retrieves admin user by username
func (as *AdminService) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	admin, err := as.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("admin user not found: %w", err)
	}
	return admin, nil
}

// SetActive activates or deactivates an account.
// Deactivating also clears the stored session so open dashboards are terminated.
func (as *AdminService) SetActive(ctx context.Context, username string, active bool, actor string) error {
	if err := as.repo.SetActive(ctx, username, active); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update admin user: %w", err)
	}

	logger := logging.NewLogger("admin_service")
	logger.Info().Str("username", username).Bool("active", active).Str("actor", actor).Msg("admin status changed")

	if active || as.registry == nil {
		return nil
	}
	if err := as.registry.InvalidateAll(ctx, username, actor); err != nil {
		return fmt.Errorf("account deactivated but session not cleared: %w", err)
	}
	return nil
}
