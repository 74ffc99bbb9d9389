package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"contest-tool-backend/internal/features/contest/repository"
)

// Снимает блокировку, только если она принадлежит вызывающему
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type lockRepository struct {
	client redis.Cmdable
}

func NewDeliveryLocker(client redis.Cmdable) repository.DeliveryLocker {
	return &lockRepository{client: client}
}

func makeDeliveryLockKey(logID string) string {
	return fmt.Sprintf("lock:delivery:%s", logID)
}

// AcquireDeliveryLock получает блокировку записи журнала доставки с TTL
func (r *lockRepository) AcquireDeliveryLock(ctx context.Context, logID string, ttl time.Duration) (func(context.Context) error, error) {
	key := makeDeliveryLockKey(logID)
	token := uuid.New().String()

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, repository.ErrAlreadyLocked
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("failed to release lock: %w", err)
		}
		return nil
	}

	return release, nil
}
