package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
	"github.com/khabaroff/portfolio-site/src/repositories/memory"
)

const testPassword = "correct horse battery"

type testEnv struct {
	repo     *memory.AdminRepository
	events   *memory.LoginEventLog
	codec    *TokenCodec
	registry *SessionRegistry
	auth     *AuthService
	resolver *SessionResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := memory.NewAdminRepository()
	events := memory.NewLoginEventLog(20)
	codec := newTestCodec(t, nil)
	registry := NewSessionRegistry(repo, events, nil)

	return &testEnv{
		repo:     repo,
		events:   events,
		codec:    codec,
		registry: registry,
		auth: NewAuthService(AuthConfig{
			Repo:     repo,
			Registry: registry,
			Codec:    codec,
		}),
		resolver: NewSessionResolver(codec, registry, nil),
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func seedAdmin(t *testing.T, repo repositories.AdminRepository, username string, active bool) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &models.AdminUser{
		ID:           username + "-id",
		Username:     username,
		PasswordHash: hashPassword(t, testPassword),
		Role:         models.RoleAdmin,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}
