package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// GlobalsTTL время жизни кэша глобальных переменных проекта
const GlobalsTTL = 10 * time.Minute

type CacheService struct {
	redisClient redis.Cmdable
}

func NewCacheService(redisClient redis.Cmdable) *CacheService {
	return &CacheService{
		redisClient: redisClient,
	}
}

// Get получает значение из кэша
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Set сохраняет значение в кэш
func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redisClient.Set(ctx, key, string(data), ttl).Err()
}

// Delete удаляет значение из кэша
func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.redisClient.Del(ctx, key).Err()
}

// GetOrSet получает значение из кэша или вычисляет и сохраняет новое.
// Ошибка записи в кэш не мешает вернуть вычисленное значение.
func (c *CacheService) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := setter()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	_ = c.redisClient.Set(ctx, key, string(data), ttl).Err()

	return json.Unmarshal(data, dest)
}

func globalsKey(projectID string) string {
	return fmt.Sprintf("project_globals:%s", projectID)
}

// GetGlobals возвращает глобальные переменные проекта, при промахе загружает их через load
func (c *CacheService) GetGlobals(ctx context.Context, projectID string, load func() (map[string]string, error)) (map[string]string, error) {
	values := make(map[string]string)
	err := c.GetOrSet(ctx, globalsKey(projectID), &values, GlobalsTTL, func() (interface{}, error) {
		return load()
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// InvalidateGlobals инвалидирует кэш глобальных переменных проекта
func (c *CacheService) InvalidateGlobals(ctx context.Context, projectID string) error {
	if err := c.Delete(ctx, globalsKey(projectID)); err != nil {
		return fmt.Errorf("failed to invalidate globals of %s: %w", projectID, err)
	}
	return nil
}
