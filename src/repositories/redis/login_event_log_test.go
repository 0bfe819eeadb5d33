package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/khabaroff/portfolio-site/src/models"
)

var testRedisAddr string

// TestMain starts a Redis container when integration tests are enabled
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis testcontainer: %v\n", err)
		os.Exit(1)
	}

	testRedisAddr, err = redisC.Endpoint(ctx, "")
	if err != nil {
		_ = redisC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container endpoint: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = redisC.Terminate(context.Background())
	os.Exit(code)
}

func newTestLog(t *testing.T, capacity int) *LoginEventLog {
	t.Helper()

	if testRedisAddr == "" {
		t.Skip("set GO_TEST_INTEGRATION=1 to run Redis integration tests")
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: testRedisAddr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.FlushDB(context.Background()).Err())

	return NewLoginEventLog(rdb, capacity, time.Hour)
}

func TestLoginEventLog_TrimsToCapacity(t *testing.T) {
	l := newTestLog(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(ctx, models.LoginEvent{
			Username:      "admin",
			Kind:          models.LoginEventLogin,
			SessionPrefix: fmt.Sprintf("s%d", i),
			At:            time.Now().UTC(),
		}))
	}

	events, err := l.Recent(ctx, "admin", 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "s4", events[0].SessionPrefix)
	assert.Equal(t, "s2", events[2].SessionPrefix)

	n, err := l.rdb.LLen(ctx, l.key("admin")).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestLoginEventLog_SkipsUndecodable(t *testing.T) {
	l := newTestLog(t, 5)
	ctx := context.Background()

	require.NoError(t, l.rdb.LPush(ctx, l.key("admin"), "not json").Err())
	require.NoError(t, l.Append(ctx, models.LoginEvent{Username: "admin", Kind: models.LoginEventLogout}))

	events, err := l.Recent(ctx, "admin", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.LoginEventLogout, events[0].Kind)
}

func TestLoginEventLog_Empty(t *testing.T) {
	l := newTestLog(t, 5)

	events, err := l.Recent(context.Background(), "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, events)
}
