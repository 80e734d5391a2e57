package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Release must only delete the lock when this holder still owns it.
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Lock is a best-effort distributed lock. Workers take one per
// transaction so two consumers never postback the same payment twice.
type Lock struct {
	client   *redis.Client
	key      string
	value    string
	ttl      time.Duration
	acquired bool
}

func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    "lock:" + key,
		value:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. A held lock is not an error;
// callers skip the work and leave the message pending.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	l.acquired = ok
	return ok, nil
}

// Release frees the lock if this holder still owns it. Expired locks
// release as a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if !l.acquired {
		return nil
	}
	l.acquired = false
	if err := releaseLockScript.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}
