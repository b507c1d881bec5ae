package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghostwriter-server/internal/ai"
	"ghostwriter-server/internal/config"
	"ghostwriter-server/internal/handler"
	"ghostwriter-server/internal/logger"
	"ghostwriter-server/internal/middleware"
	"ghostwriter-server/internal/repository"
	"ghostwriter-server/internal/service"
	"ghostwriter-server/migrations"
	"ghostwriter-server/pkg/database"
	"ghostwriter-server/pkg/migration"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: "json"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// База данных и миграции
	db, err := database.New(ctx, cfg.GetDSN(), cfg.DBMaxConns)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, db.Pool)
	if err := migrator.Up(ctx); err != nil {
		zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Redis для блокировки параллельных генераций
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// AI клиент
	aiClient, err := ai.NewClient(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize AI client", zap.Error(err))
	}

	// Репозитории
	walletRepo := repository.NewPgWalletRepository(db.Pool, zapLogger)
	charRepo := repository.NewPgCharacterRepository(db.Pool, zapLogger)
	scenRepo := repository.NewPgScenarioRepository(db.Pool, zapLogger)
	storyRepo := repository.NewPgStoryRepository(db.Pool, zapLogger)
	contentRepo := repository.NewPgStoryContentRepository(db.Pool, zapLogger)
	guard := repository.NewRedisGenerationGuard(redisClient, cfg.GenerationTTL, zapLogger)

	// Сервисы
	prompts := service.NewPromptBuilder()
	parser := service.NewResponseParser(zapLogger)
	episodes := service.NewEpisodeService(walletRepo, charRepo, scenRepo, storyRepo, contentRepo, guard, aiClient, prompts, parser, zapLogger)
	planner := service.NewRetrievalPlanner(walletRepo, storyRepo, contentRepo, guard, aiClient, prompts, parser, zapLogger)
	library := service.NewLibraryService(storyRepo, contentRepo, zapLogger)
	presets := service.NewPresetService(charRepo, scenRepo, zapLogger)
	wallets := service.NewWalletService(walletRepo, zapLogger)

	// HTTP сервер
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ZapLoggingMiddleware(zapLogger))
	// Wildcard origin несовместим с credentials, поэтому включаем их
	// только для явного списка источников.
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-User-ID", "X-Request-ID"},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	router.Use(cors.New(corsCfg))

	prom := ginprometheus.NewPrometheus("ghostwriter")
	prom.MetricsPath = "/metrics"
	prom.Use(router)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := handler.NewHandler(episodes, planner, library, presets, wallets, zapLogger)
	h.RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("Server stopped")
}
