package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dynprot/engine/internal/api"
	"github.com/dynprot/engine/internal/api/handlers"
	"github.com/dynprot/engine/internal/assistant/coach"
	"github.com/dynprot/engine/internal/assistant/intent"
	"github.com/dynprot/engine/internal/assistant/llm"
	"github.com/dynprot/engine/internal/assistant/nutrition"
	"github.com/dynprot/engine/internal/queue"
	"github.com/dynprot/engine/internal/repository"
	"github.com/dynprot/engine/internal/services"
	"github.com/dynprot/engine/internal/storage"
	"github.com/dynprot/engine/pkg/config"
	"github.com/dynprot/engine/pkg/database"
	"github.com/dynprot/engine/pkg/logger"
)

// @title           DynProt API
// @version         1.0
// @description     Protein intake tracking with a conversational assistant.

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting dynprot api",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("timezone", cfg.Timezone),
	)

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{Verbose: !cfg.IsProduction()})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()
	log.Info("database connected")

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	mealRepo := repository.NewMealRepository(db)
	chatRepo := repository.NewChatRepository(db)

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		log.Warn("JWT_SECRET not set, using an insecure development secret")
		jwtSecret = []byte("dynprot-dev-secret-change-me")
	}
	if cfg.AllowLegacyUserID {
		log.Warn("legacy user id authentication is enabled")
	}

	store, err := storage.Open(ctx, storage.Options{Bucket: cfg.S3Bucket, Region: cfg.S3Region, Dir: cfg.UploadDir})
	if err != nil {
		log.Fatal("failed to open upload storage", zap.Error(err))
	}

	checks := map[string]handlers.Check{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}

	var asynqClient *asynq.Client
	if cfg.RedisAddr != "" {
		asynqClient = asynq.NewClient(queue.RedisOpt(cfg.RedisAddr, cfg.RedisPassword))
		defer asynqClient.Close()

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn("REDIS_ADDR not set, background jobs are disabled")
	}

	text, vision, speaker := hostedModels(cfg, log)

	authSvc := services.NewAuthService(userRepo, jwtSecret)
	profileSvc := services.NewProfileService(userRepo, profileRepo, asynqClient)
	mealSvc := services.NewMealService(mealRepo, profileRepo, cfg.Location())
	chatSvc := services.NewChatService(services.ChatDeps{
		Chats:           chatRepo,
		Meals:           mealSvc,
		Profiles:        profileSvc,
		Classifier:      intent.NewClassifier(text),
		Analyzer:        nutrition.NewAnalyzer(text, vision...),
		Coach:           coach.New(text),
		Speaker:         speaker,
		Store:           store,
		AsynqClient:     asynqClient,
		UploadRetention: cfg.UploadRetention,
	})

	router := api.NewRouter(api.Dependencies{
		Verifier:          authSvc,
		AllowLegacyUserID: cfg.AllowLegacyUserID,
		HideErrorDetails:  cfg.IsProduction(),
		CORSOrigins:       cfg.Origins(),
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		AuthHandler:       handlers.NewAuthHandler(authSvc, profileSvc),
		ChatHandler:       handlers.NewChatHandler(chatSvc, cfg.UploadMaxBytes),
		MealsHandler:      handlers.NewMealsHandler(mealSvc),
		UsersHandler:      handlers.NewUsersHandler(profileSvc),
		HealthHandler:     handlers.NewHealthHandler(checks),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}

// hostedModels builds the model clients whose API keys are configured.
// Vision providers are returned in trial order, Claude first.
func hostedModels(cfg *config.Config, log *zap.Logger) (llm.Completer, []nutrition.Provider, llm.Speaker) {
	var (
		text    llm.Completer
		speaker llm.Speaker
		vision  []nutrition.Provider
	)

	if cfg.ClaudeAPIKey != "" {
		claude := llm.NewClaude(llm.ClaudeConfig{
			APIKey:  cfg.ClaudeAPIKey,
			Model:   cfg.ClaudeModel,
			Timeout: cfg.LLMTimeout,
		})
		vision = append(vision, nutrition.Provider{Name: "claude", Completer: claude, MaxTokens: 1000})
	}

	if cfg.OpenAIAPIKey != "" {
		openai := llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			VisionModel: cfg.OpenAIVisionModel,
			Timeout:     cfg.LLMTimeout,
		})
		text, speaker = openai, openai
		vision = append(vision, nutrition.Provider{Name: "openai", Completer: openai, MaxTokens: 1000})
	} else {
		log.Warn("OPENAI_API_KEY not set, text analysis and chat replies are degraded")
	}

	if len(vision) == 0 {
		log.Warn("no vision provider configured, photo analysis is disabled")
	}
	return text, vision, speaker
}
