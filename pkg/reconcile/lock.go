package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("a reconciliation is already running for this tenant")

// Locker grants at most one reconciliation per tenant. Acquire fails fast
// with ErrLockNotAcquired when the tenant is busy.
type Locker interface {
	Acquire(ctx context.Context, tenantID string) (release func(), err error)
}

// LocalLocker serializes runs inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, tenantID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	slot, ok := l.slots[tenantID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[tenantID] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	default:
		return nil, ErrLockNotAcquired
	}
}

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker serializes runs across replicas. The TTL must exceed the run
// timeout; it only matters when a holder dies without releasing.
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:    client,
		keyPrefix: "email-onboarding:reconcile-lock:",
		ttl:       ttl,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, tenantID string) (func(), error) {
	key := l.keyPrefix + tenantID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}, nil
}
