package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/khabaroff/portfolio-site/src/database"
	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

const testTimeout = 10 * time.Second

// TestMain starts one MongoDB container per package run when integration tests are enabled
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := mongoC.Endpoint(ctx, "")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container endpoint: %v\n", err)
		os.Exit(1)
	}
	_ = os.Setenv("TEST_MONGO_URL", "mongodb://"+endpoint)

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// newTestRepo connects to a fresh database so tests never share documents
func newTestRepo(t *testing.T) *AdminRepository {
	t.Helper()

	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("set GO_TEST_INTEGRATION=1 to run MongoDB integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	uri := os.Getenv("TEST_MONGO_URL") + "/admin_test_" + uuid.NewString()
	m, err := database.NewMongo(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	return NewAdminRepository(m.AdminUsers())
}

func newAdmin(username string, active bool) *models.AdminUser {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.AdminUser{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "$2a$04$hash",
		Role:         models.RoleAdmin,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAdminRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	require.NoError(t, repo.Create(ctx, newAdmin("admin", true)))
	require.ErrorIs(t, repo.Create(ctx, newAdmin("admin", true)), repositories.ErrAlreadyExists)

	got, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	assert.Nil(t, got.ActiveSessionID)

	_, err = repo.GetByUsername(ctx, "ghost")
	require.ErrorIs(t, err, repositories.ErrNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAdminRepository_SessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	require.NoError(t, repo.Create(ctx, newAdmin("admin", true)))
	require.NoError(t, repo.Create(ctx, newAdmin("off", false)))

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.SetActiveSession(ctx, "admin", "s1", at))
	require.NoError(t, repo.SetActiveSession(ctx, "admin", "s2", at))
	require.ErrorIs(t, repo.SetActiveSession(ctx, "off", "s3", at), repositories.ErrNotFound)

	got, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, got.ActiveSessionID)
	assert.Equal(t, "s2", *got.ActiveSessionID)
	assert.True(t, got.LastLoginAt.Equal(at))

	cleared, err := repo.ClearActiveSession(ctx, "admin", "s1")
	require.NoError(t, err)
	assert.False(t, cleared, "stale session must not clear the newer one")

	cleared, err = repo.ClearActiveSession(ctx, "admin", "s2")
	require.NoError(t, err)
	assert.True(t, cleared)

	_, err = repo.ClearActiveSession(ctx, "ghost", "")
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAdminRepository_BulkClear(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, newAdmin(name, true)))
	}
	require.NoError(t, repo.SetActiveSession(ctx, "a", "sa", time.Now().Add(-200*time.Hour)))
	require.NoError(t, repo.SetActiveSession(ctx, "b", "sb", time.Now()))

	swept, err := repo.ClearSessionsStartedBefore(ctx, time.Now().Add(-168*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, swept)

	cleared, err := repo.ClearAllActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, cleared)

	got, err := repo.GetByUsername(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got.ActiveSessionID)

	// Only accounts changed by this clear are reported, not ones stamped by earlier clears
	require.NoError(t, repo.SetActiveSession(ctx, "a", "sa2", time.Now()))
	cleared, err = repo.ClearAllActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, cleared)

	cleared, err = repo.ClearAllActiveSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, cleared)
}
