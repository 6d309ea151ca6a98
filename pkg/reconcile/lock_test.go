package reconcile

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Acquire(context.Background(), "t1")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	other, err := l.Acquire(context.Background(), "t2")
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Acquire(context.Background(), "t1")
	require.NoError(t, err)
	again()
}

func TestLocalLockerHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalLocker().Acquire(ctx, "t1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	l := NewRedisLocker(client, 10*time.Second)
	tenant := "lock-test-" + time.Now().Format("150405.000000")

	release, err := l.Acquire(context.Background(), tenant)
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), tenant)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	release()
	again, err := l.Acquire(context.Background(), tenant)
	require.NoError(t, err)
	again()
}
