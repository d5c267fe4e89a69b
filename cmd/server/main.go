package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decorlens/backend/config"
	httpDelivery "github.com/decorlens/backend/internal/delivery/http"
	"github.com/decorlens/backend/internal/domain"
	"github.com/decorlens/backend/internal/infrastructure/cache"
	"github.com/decorlens/backend/internal/infrastructure/llm"
	"github.com/decorlens/backend/internal/infrastructure/logger"
	"github.com/decorlens/backend/internal/infrastructure/marketplace"
	"github.com/decorlens/backend/internal/infrastructure/sentiment"
	"github.com/decorlens/backend/internal/usecase"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// Load configuration (.env, config.yaml, DECORLENS_* env)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("starting DecorLens backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache_type", cfg.Cache.Type),
	)

	// Initialize infrastructure dependencies
	queryCache, closeCache, err := newCache(cfg.Cache)
	if err != nil {
		zl.Fatal("failed to initialize cache", zap.Error(err))
	}
	defer closeCache()

	var completion domain.TextCompletionClient
	if cfg.AdvancedAnalysisEnabled() {
		client, err := llm.NewClient(llm.Config{
			APIKey:            cfg.AI.APIKey,
			BaseURL:           cfg.AI.BaseURL,
			Model:             cfg.AI.Model,
			Timeout:           cfg.AI.Timeout,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
		}, zl)
		if err != nil {
			zl.Fatal("failed to initialize completion client", zap.Error(err))
		}
		completion = client
		zl.Info("advanced analysis enabled", zap.String("model", cfg.AI.Model), zap.String("base_url", cfg.AI.BaseURL))
	} else {
		zl.Warn("AI API key not configured, using basic scoring (set DECORLENS_AI_API_KEY)")
	}

	profile := marketplace.TrendyolProfile()
	if cfg.Scraper.ProfilePath != "" {
		profile, err = marketplace.LoadProfile(cfg.Scraper.ProfilePath)
		if err != nil {
			zl.Fatal("failed to load site profile", zap.String("path", cfg.Scraper.ProfilePath), zap.Error(err))
		}
	}
	zl.Info("marketplace profile", zap.String("name", profile.Name), zap.String("base_url", profile.BaseURL))

	browser := marketplace.NewPlaywrightBrowser(marketplace.BrowserConfig{
		ExecutablePath: cfg.Scraper.ExecutablePath,
		UserAgent:      cfg.Scraper.UserAgent,
	}, zl)

	scraperCfg := marketplace.DefaultConfig()
	scraperCfg.NavigationTimeout = cfg.Scraper.NavigationTimeout
	scraperCfg.FallbackTimeout = cfg.Scraper.FallbackTimeout
	scraperCfg.SelectorTimeout = cfg.Scraper.SelectorTimeout
	scraperCfg.ScrollCycles = cfg.Scraper.ScrollCycles
	scraperCfg.ScreenshotDir = cfg.Scraper.ScreenshotDir
	scraper := marketplace.NewScraper(browser, profile, scraperCfg, zl)

	commentScraper := marketplace.NewCommentScraper(browser, profile, scraperCfg, zl)

	// Initialize usecase layer
	reviewScorer := sentiment.NewAnalyzer()
	searchService := usecase.NewSearchService(
		queryCache,
		completion,
		scraper,
		reviewScorer,
		usecase.NewTimeSeededRandomSource(),
		usecase.SearchServiceConfig{CacheTTL: cfg.Cache.TTL},
		zl,
	)
	commentService := usecase.NewCommentService(
		queryCache,
		completion,
		commentScraper,
		reviewScorer,
		usecase.CommentServiceConfig{CacheTTL: cfg.Cache.TTL},
		zl,
	)

	handler := httpDelivery.NewHandler(searchService, commentService, zl)
	router := httpDelivery.SetupRouter(cfg, handler, zl)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server...")

	// a search can hold a browser for up to a minute
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	zl.Info("server exited")
}

// newCache builds the configured cache. A nil repository disables caching.
func newCache(cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	switch cfg.Type {
	case "redis":
		rc, err := cache.NewRedisCache(context.Background(), cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	case "memory":
		mc := cache.NewMemoryCache(cfg.CleanupInterval)
		return mc, func() { _ = mc.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
