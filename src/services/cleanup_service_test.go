package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/portfolio-site/src/repositories/mock"
)

func TestCleanupService_SweepNow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedAdmin(t, env.repo, "admin", true)

	env.registry.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	_, err := env.registry.StartSession(ctx, "admin")
	require.NoError(t, err)
	env.registry.now = time.Now

	cs := NewCleanupService(env.registry, DefaultSessionTTL, time.Hour)
	n, err := cs.SweepNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCleanupService_StartRunsImmediately(t *testing.T) {
	repo := mock.NewAdminRepository()
	swept := make(chan time.Time, 1)
	repo.ClearSessionsStartedBeforeFunc = func(ctx context.Context, cutoff time.Time) ([]string, error) {
		select {
		case swept <- cutoff:
		default:
		}
		return nil, nil
	}

	cs := NewCleanupService(NewSessionRegistry(repo, nil, nil), DefaultSessionTTL, time.Hour)
	cs.Start(context.Background())
	defer cs.Stop()

	select {
	case cutoff := <-swept:
		assert.WithinDuration(t, time.Now().Add(-DefaultSessionTTL), cutoff, 5*time.Second)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not run on start")
	}
}

func TestCleanupService_StopTwice(t *testing.T) {
	cs := NewCleanupService(newTestEnv(t).registry, DefaultSessionTTL, time.Hour)
	cs.Start(context.Background())
	assert.NotPanics(t, func() {
		cs.Stop()
		cs.Stop()
	})
}

func TestCleanupService_Disabled(t *testing.T) {
	cs := NewCleanupService(newTestEnv(t).registry, DefaultSessionTTL, 0)
	cs.Start(context.Background())
	cs.Stop()
}
