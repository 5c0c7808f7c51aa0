package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/account-service/adapters/event"
	"github.com/khoahotran/account-service/adapters/persistence"
	cacheUC "github.com/khoahotran/account-service/internal/application/usecase/cache"
	"github.com/khoahotran/account-service/internal/config"
	"github.com/khoahotran/account-service/pkg/logger"
)

const consumerGroup = "account-cache-warmer"

func main() {
	fmt.Println("Starting Account Cache Worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, cfg.App.LogLevel)
	defer appLogger.Sync()

	if len(cfg.Kafka.Brokers) == 0 || cfg.Redis.Addr == "" {
		appLogger.Fatal("worker requires KAFKA_BROKERS and REDIS_ADDR", errors.New("missing configuration"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Redis", err)
	}
	defer redisClient.Close()

	// Repositories
	accountRepo := persistence.NewPostgresAccountRepo(dbPool, appLogger)
	cachedRepo := persistence.NewCachedAccountRepo(accountRepo, redisClient, cfg.Redis.TTL, appLogger)

	// Worker Use Case
	warmCacheUC := cacheUC.NewWarmAccountCacheUseCase(cachedRepo, appLogger)

	// Kafka Consumer
	accountConsumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicAccountEvents,
		GroupID:  consumerGroup,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer accountConsumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicAccountEvents), zap.String("group", consumerGroup))

	event.NewAccountEventConsumer(accountConsumer, warmCacheUC, appLogger).Run(ctx)
	appLogger.Info("Worker stopping")
}
