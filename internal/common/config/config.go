package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"contests"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`

		// Прогонять миграции при старте
		AutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	VK struct {
		Token      string        `env:"VK_TOKEN,required,notEmpty"`
		APIVersion string        `env:"VK_API_VERSION" envDefault:"5.199"`
		BaseURL    string        `env:"VK_API_URL" envDefault:"https://api.vk.com/method"`
		Timeout    time.Duration `env:"VK_TIMEOUT" envDefault:"10s"`
	}

	NATS struct {
		// Пустой URL отключает публикацию событий
		URL           string `env:"NATS_URL" envDefault:""`
		SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"contests"`
	}

	Engine struct {
		CheckInterval           time.Duration `env:"ENGINE_CHECK_INTERVAL" envDefault:"30s"`
		CleanupInterval         time.Duration `env:"ENGINE_CLEANUP_INTERVAL" envDefault:"5m"`
		DeliveryTimeout         time.Duration `env:"ENGINE_DELIVERY_TIMEOUT" envDefault:"15s"`
		MaxConcurrentDeliveries int           `env:"ENGINE_MAX_CONCURRENT_DELIVERIES" envDefault:"5"`
		StaleEvaluationAfter    time.Duration `env:"ENGINE_STALE_EVALUATION_AFTER" envDefault:"10m"`
		StalePendingAfter       time.Duration `env:"ENGINE_STALE_PENDING_AFTER" envDefault:"5m"`
		NoEligibleRetryAfter    time.Duration `env:"ENGINE_NO_ELIGIBLE_RETRY_AFTER" envDefault:"15m"`
		TimeZone                string        `env:"ENGINE_TIMEZONE" envDefault:"Europe/Moscow"`
		FinalizeStream          string        `env:"ENGINE_FINALIZE_STREAM" envDefault:"contest:finalize"`
	}
}

// GetDSN собирает строку подключения для lib/pq
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password, c.Postgres.Database, c.Postgres.SSLMode)
}

// Location возвращает часовой пояс, в котором задаются расписания конкурсов
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Engine.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Load() (*Config, error) {
	// .env может отсутствовать, в production переменные задаются окружением
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
