package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"contest-tool-backend/internal/common/config"
	"contest-tool-backend/internal/common/logger"
)

// Client wraps go-redis client to allow future extensions.
type Client struct {
	*redis.Client
}

// Open creates a new Redis client and pings it to validate the connection.
func Open(ctx context.Context, addr, password string, db int) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{Client: c}, nil
}

// NewClient открывает соединение по настройкам сервиса
func NewClient(cfg *config.Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	client, err := Open(ctx, addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis %s: %w", addr, err)
	}

	logger.Info().
		Str("addr", addr).
		Int("db", cfg.Redis.DB).
		Msg("Redis client initialized")

	return client, nil
}

// HealthCheck проверяет доступность redis
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
