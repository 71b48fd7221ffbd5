package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"talk-support/config"
	_ "talk-support/docs" // Swagger docs
	"talk-support/internal/httpserver"
	sgHTTP "talk-support/internal/suggestion/delivery/http"
	"talk-support/internal/suggestion/repository"
	memoryRepo "talk-support/internal/suggestion/repository/memory"
	redisRepo "talk-support/internal/suggestion/repository/redis"
	"talk-support/internal/suggestion/usecase"
	"talk-support/pkg/llmprovider"
	"talk-support/pkg/log"
	"talk-support/pkg/voyage"
)

// @title       Talk Support API
// @description Conversation topic suggestion engine: interest profiles, live topic tracking, and adaptive suggestion ranking.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting Talk Support...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)

	// 3. Session store: Redis, falling back to in-memory when Redis
	// is unreachable (development convenience).
	var sessionRepo repository.SessionRepository
	if opt, parseErr := goredis.ParseURL(cfg.Redis.URL); parseErr != nil {
		logger.Warnf(ctx, "Invalid Redis URL %q, using in-memory session store: %v", cfg.Redis.URL, parseErr)
		sessionRepo = memoryRepo.New(cfg.Redis.SessionTTL)
	} else {
		rdb := goredis.NewClient(opt)
		if pingErr := rdb.Ping(ctx).Err(); pingErr != nil {
			logger.Warnf(ctx, "Redis unreachable, using in-memory session store: %v", pingErr)
			sessionRepo = memoryRepo.New(cfg.Redis.SessionTTL)
		} else {
			logger.Infof(ctx, "Redis session store connected: %s", opt.Addr)
			sessionRepo = redisRepo.New(rdb, cfg.Redis.SessionTTL, logger)
		}
	}

	// 4. Embedding port
	if cfg.Voyage.APIKey == "" {
		logger.Error(ctx, "VOYAGE_API_KEY is required")
		return
	}
	embedder, err := voyage.New(cfg.Voyage.APIKey)
	if err != nil {
		logger.Error(ctx, "Failed to initialize Voyage client: ", err)
		return
	}
	if cfg.Voyage.Model != "" {
		embedder.WithModel(cfg.Voyage.Model)
	}
	if cfg.Voyage.BaseURL != "" {
		embedder.WithBaseURL(cfg.Voyage.BaseURL)
	}

	// 5. Generation port: provider manager with retry and fallback
	providers, err := llmprovider.InitializeProviders(&cfg.LLM)
	if err != nil {
		logger.Error(ctx, "Failed to initialize LLM providers: ", err)
		return
	}
	for _, p := range providers {
		logger.Infof(ctx, "LLM provider ready: name=%s model=%s", p.Name(), p.Model())
	}
	manager := llmprovider.NewManager(providers, &llmprovider.Config{
		FallbackEnabled: cfg.LLM.FallbackEnabled,
		RetryAttempts:   cfg.LLM.RetryAttempts,
		RetryDelay:      cfg.LLM.RetryDelay,
		MaxTotalTimeout: cfg.LLM.MaxTotalTimeout,
	}, logger)

	// 6. Suggestion UseCase
	suggestionUC := usecase.New(logger, sessionRepo, embedder, newGenerationPort(manager), nil, usecase.Config{
		EMAAlpha:         cfg.Engine.EMAAlpha,
		HistoryThreshold: cfg.Engine.HistoryThreshold,
		HistoryKeep:      cfg.Engine.HistoryKeep,
		SummaryMaxChars:  cfg.Engine.SummaryMaxChars,
		WeightProfile:    cfg.Engine.WeightProfile,
		WeightContext:    cfg.Engine.WeightContext,
		WeightSafety:     cfg.Engine.WeightSafety,
		SuggestionCap:    cfg.Engine.SuggestionCap,
		EmbedTimeout:     cfg.Engine.EmbedTimeout,
		GenerateTimeout:  cfg.Engine.GenerateTimeout,
	})

	// 7. Delivery handler
	suggestionHandler := sgHTTP.New(logger, suggestionUC, cfg.Engine.AutoDeleteOnDisconnect)

	// 8. HTTP Server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:            logger,
		Port:              cfg.HTTPServer.Port,
		Mode:              cfg.HTTPServer.Mode,
		Environment:       cfg.Environment.Name,
		RateLimitPerMin:   cfg.HTTPServer.RateLimitPerMin,
		SuggestionHandler: suggestionHandler,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		return
	}

	// 9. Run
	if err := httpServer.Run(); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
		return
	}

	logger.Info(ctx, "Server stopped gracefully")
}
