package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "presale:0xabc", []byte(`{"progress":30}`)))
	v, ok, err := c.Get(ctx, "presale:0xabc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"progress":30}`, string(v))

	require.NoError(t, c.Set(ctx, "presale:0xabc", []byte(`{"progress":40}`)))
	v, _, err = c.Get(ctx, "presale:0xabc")
	require.NoError(t, err)
	assert.Equal(t, `{"progress":40}`, string(v))
}

func TestLocal(t *testing.T) {
	c, err := NewLocal(context.Background(), time.Minute)
	require.NoError(t, err)
	defer c.Close()

	exercise(t, c)
}

func setupRedis(t *testing.T) (string, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port()), func() { _ = container.Terminate(ctx) }
}

func TestRedis(t *testing.T) {
	addr, cleanup := setupRedis(t)
	defer cleanup()

	c, err := NewRedis(context.Background(), addr, "", 0, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	exercise(t, c)
}

func TestRedis_Expiry(t *testing.T) {
	addr, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	c, err := NewRedis(ctx, addr, "", 0, time.Second)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	require.Eventually(t, func() bool {
		_, ok, err := c.Get(ctx, "k")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}

func TestNewRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, "127.0.0.1:1", "", 0, time.Minute)
	assert.Error(t, err)
}
