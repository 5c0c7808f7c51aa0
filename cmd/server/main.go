package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/account-service/adapters/event"
	httpAdapter "github.com/khoahotran/account-service/adapters/http"
	"github.com/khoahotran/account-service/adapters/media_storage"
	"github.com/khoahotran/account-service/adapters/persistence"
	"github.com/khoahotran/account-service/internal/application/service"
	authUC "github.com/khoahotran/account-service/internal/application/usecase/auth"
	"github.com/khoahotran/account-service/internal/config"
	"github.com/khoahotran/account-service/internal/domain/account"
	"github.com/khoahotran/account-service/pkg/auth"
	"github.com/khoahotran/account-service/pkg/logger"
	"github.com/khoahotran/account-service/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Start Account API Server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, cfg.App.LogLevel)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "account-api")
	if err != nil {
		appLogger.Fatal("cannot init tracing", err)
	}
	defer tracing.Shutdown(context.Background(), tp)

	// Credential store; the process must not start without it
	if cfg.DB.AutoMigrate {
		if err := persistence.RunMigrations(cfg, appLogger); err != nil {
			appLogger.Fatal("cannot migrate database", err)
		}
	}
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	var accountRepo account.Repository = persistence.NewPostgresAccountRepo(dbPool, appLogger)
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect Redis", err)
		}
		defer redisClient.Close()
		accountRepo = persistence.NewCachedAccountRepo(accountRepo, redisClient, cfg.Redis.TTL, appLogger)
	}

	var publisher service.EventPublisher = event.NoopPublisher{Logger: appLogger}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	}

	// Services
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	uploader, err := media_storage.NewUploader(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Use Cases
	signupUseCase := authUC.NewSignupUseCase(accountRepo, hasher, uploader, publisher, cfg.ImageHost.Folder, appLogger)
	loginUseCase := authUC.NewLoginUseCase(accountRepo, hasher, appLogger)

	// HTTP
	authHandler := httpAdapter.NewAuthHandler(signupUseCase, loginUseCase, appLogger)
	router := httpAdapter.NewRouter(authHandler, cfg.App.AllowedOrigins, appLogger)

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
