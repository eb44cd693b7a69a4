package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dynprot/engine/internal/queue"
	"github.com/dynprot/engine/internal/queue/tasks"
	"github.com/dynprot/engine/internal/repository"
	"github.com/dynprot/engine/internal/storage"
	"github.com/dynprot/engine/pkg/config"
	"github.com/dynprot/engine/pkg/database"
	"github.com/dynprot/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required to run the worker")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	_ = rdb.Close()

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{Verbose: !cfg.IsProduction()})
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	store, err := storage.Open(ctx, storage.Options{Bucket: cfg.S3Bucket, Region: cfg.S3Region, Dir: cfg.UploadDir})
	if err != nil {
		log.Fatal("failed to open upload storage", zap.Error(err))
	}

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.RedisAddr, cfg.RedisPassword),
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Queues:      map[string]int{queue.QueueDefault: 1},
			Logger:      logger.Named("asynq").Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	handler := tasks.NewTaskHandler(repository.NewUserRepository(db), repository.NewChatRepository(db), store)
	handler.Register(mux)

	log.Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency))
	if err := srv.Start(mux); err != nil {
		log.Fatal("asynq worker failed to start", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	// waits for in-flight tasks up to asynq's shutdown timeout
	srv.Shutdown()
}
