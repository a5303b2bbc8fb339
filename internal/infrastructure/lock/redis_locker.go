package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	appstock "github.com/retail/backend/internal/application/stock"
	"github.com/retail/backend/internal/domain/shared"
)

const lockKeyPrefix = "stock:lock:"

// releaseScript deletes the lock only when still held by the caller,
// so a lock that expired and was re-acquired by another process is
// never released by the original holder.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker is a product locker backed by Redis SET NX with a TTL,
// for deployments running more than one service instance.
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	timeout       time.Duration
	retryInterval time.Duration
}

// NewRedisLocker creates a Redis-backed locker. ttl bounds how long an
// orphaned lock can linger; timeout bounds acquisition waiting.
func NewRedisLocker(client *redis.Client, ttl, timeout time.Duration) *RedisLocker {
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		timeout:       timeout,
		retryInterval: 10 * time.Millisecond,
	}
}

// Acquire implements stock.ProductLocker
func (l *RedisLocker) Acquire(ctx context.Context, productID uuid.UUID) (func(), error) {
	key := lockKeyPrefix + productID.String()
	token := uuid.NewString()
	deadline := time.Now().Add(l.timeout)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, shared.ErrConcurrencyConflict
		}

		select {
		case <-time.After(l.retryInterval):
		case <-ctx.Done():
			return nil, shared.ErrConcurrencyConflict
		}
	}
}

var _ appstock.ProductLocker = (*RedisLocker)(nil)
