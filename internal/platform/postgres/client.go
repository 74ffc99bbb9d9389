package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"contest-tool-backend/internal/common/config"
	"contest-tool-backend/internal/common/logger"
)

var (
	ErrNotMigrated    = errors.New("database schema is not migrated")
	ErrDirtyMigration = errors.New("last migration failed, schema is dirty")
)

type Client struct {
	db *sql.DB
}

func NewClient(cfg *config.Config) (*Client, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Postgres.Host).
		Int("port", cfg.Postgres.Port).
		Str("database", cfg.Postgres.Database).
		Int("max_open_conns", cfg.Postgres.MaxOpenConns).
		Msg("PostgreSQL client initialized")

	return &Client{db: db}, nil
}

// NewClientFromDB оборачивает уже открытое соединение
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) GetDB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

// HealthCheck проверяет соединение и то, что миграции применены без ошибок
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return err
	}

	var dirty bool
	err := c.db.QueryRowContext(ctx, `SELECT dirty FROM schema_migrations LIMIT 1`).Scan(&dirty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotMigrated
	case err != nil:
		return fmt.Errorf("failed to read migration state: %w", err)
	case dirty:
		return ErrDirtyMigration
	}
	return nil
}

// Stats статистика пула соединений
func (c *Client) Stats() sql.DBStats {
	return c.db.Stats()
}
