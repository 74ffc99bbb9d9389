package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "contest-tool-backend/docs"
	"contest-tool-backend/internal/common/cache"
	"contest-tool-backend/internal/common/config"
	"contest-tool-backend/internal/common/logger"
	"contest-tool-backend/internal/common/middleware"
	contestHTTP "contest-tool-backend/internal/features/contest/delivery/http"
	contestRepo "contest-tool-backend/internal/features/contest/repository/postgres"
	contestLocks "contest-tool-backend/internal/features/contest/repository/redis"
	contestService "contest-tool-backend/internal/features/contest/service"
	"contest-tool-backend/internal/platform/events"
	"contest-tool-backend/internal/platform/postgres"
	"contest-tool-backend/internal/platform/redis"
	"contest-tool-backend/internal/platform/vk"
	"contest-tool-backend/internal/workers"
)

// @title           Contest Tool API
// @version         1.0
// @description     Движок конкурсов VK-сообществ: подведение итогов, выдача промокодов и доставка призов.

// @host      localhost:8080
// @BasePath  /api/v1

// @tag.name contests
// @tag.description Конкурсы, циклы и подведение итогов

// @tag.name participants
// @tag.description Заявки участников

// @tag.name promocodes
// @tag.description Пул промокодов конкурса

// @tag.name delivery
// @tag.description Журнал доставки призов

// @tag.name blacklist
// @tag.description Черный список

// @tag.name projects
// @tag.description Глобальные переменные проекта

func main() {
	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("contest-tool-backend", cfg.Debug)
	log := logger.Component("main")

	log.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Str("timezone", cfg.Engine.TimeZone).
		Msg("Starting Contest Tool Backend")

	migrateDown := flag.Int("migrate-down", 0, "откатить указанное число миграций и выйти")
	flag.Parse()

	if *migrateDown > 0 {
		if err := postgres.MigrateDown(cfg.GetDSN(), *migrateDown); err != nil {
			log.Fatal().Err(err).Msg("Failed to rollback migrations")
		}
		log.Info().Int("steps", *migrateDown).Msg("Migrations rolled back")
		return
	}

	if cfg.Postgres.AutoMigrate {
		if err := postgres.MigrateUp(cfg.GetDSN()); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	// Инициализируем базу данных
	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	// Инициализируем Redis
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)

	// События конкурсов
	var publisher contestService.EventPublisher = events.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		log.Warn().Msg("NATS_URL is empty, contest events are not published")
	}

	// Инициализируем движок
	contestRepository := contestRepo.NewPostgresRepository(postgresClient.GetDB())
	deliveryLocker := contestLocks.NewDeliveryLocker(redisClient)
	vkClient := vk.NewClient(cfg)

	contestSvc := contestService.NewService(
		contestRepository,
		deliveryLocker,
		cacheService,
		vkClient,
		publisher,
		contestService.OptionsFromConfig(cfg),
	)

	scheduler := contestService.NewScheduler(contestSvc)
	scheduler.Start()

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	hostname, _ := os.Hostname()
	consumer := fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
	streamWorker := workers.NewRedisStreamWorker(redisClient, contestSvc, cfg.Engine.FinalizeStream, consumer)
	go streamWorker.Start(workerCtx)

	log.Info().Msg("Services initialized")

	// Настраиваем Gin
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler(logger.Component("http")))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, contestSvc, postgresClient, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Ждем сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelWorker()
	scheduler.Stop()

	log.Info().Msg("Server exited")
}

func setupRoutes(router *gin.Engine, contestSvc contestService.ContestService, postgresClient *postgres.Client, redisClient *redis.Client) {
	v1 := router.Group("/api/v1")
	contestHTTP.NewContestHandler(contestSvc).RegisterRoutes(v1)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "contest-tool-backend",
		})
	})

	// Liveness probe
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Readiness probe
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		if err := redisClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		stats := postgresClient.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "contest-tool-backend",
			"postgres": gin.H{
				"open_connections": stats.OpenConnections,
				"in_use":           stats.InUse,
				"wait_count":       stats.WaitCount,
			},
		})
	})
}
