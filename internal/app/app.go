// Package app wires configuration into the services shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/productadvisor/backend/config"
	"github.com/productadvisor/backend/internal/domain"
	"github.com/productadvisor/backend/internal/infrastructure/cache"
	"github.com/productadvisor/backend/internal/infrastructure/catalog"
	"github.com/productadvisor/backend/internal/infrastructure/favorites"
	"github.com/productadvisor/backend/internal/infrastructure/llm"
	"github.com/productadvisor/backend/internal/usecase"
	"go.uber.org/zap"
)

// App holds the wired services
type App struct {
	Catalog   *catalog.Catalog
	Model     domain.ChatModel
	Advisor   *usecase.AdvisorService
	Favorites *usecase.FavoritesService

	closers []func() error
}

// NewLogger builds a development logger for development and a production logger otherwise
func NewLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New builds every dependency described by cfg
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	version := domain.SchemaVersion(cfg.LLM.SchemaVersion)

	products, err := catalog.Load(cfg.Catalog.Path, version, logger.Named("catalog"))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	model, err := llm.New(ctx, llm.Config{
		Provider:          cfg.LLM.Provider,
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		RequestsPerMinute: cfg.RateLimit.LLM,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	a := &App{Catalog: products, Model: model}

	var results domain.ResultCache
	switch cfg.Store.Type {
	case "redis":
		rc, err := cache.NewRedisResultCache(cfg.Store.RedisURL, cfg.Store.TTL)
		if err != nil {
			return nil, err
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		results = rc
	default:
		results = cache.NewMemoryResultCache(cfg.Store.MaxSessions, cfg.Store.TTL)
	}

	client := usecase.NewRecommendationClient(model, usecase.RecommendationClientConfig{
		SchemaVersion: version,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
	}, logger)
	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		SchemaVersion:      version,
		EnableDebugLogging: cfg.Server.Environment == "development",
	}, logger)

	a.Advisor = usecase.NewAdvisorService(products, client, matcher, results, logger)
	a.Favorites = usecase.NewFavoritesService(favorites.NewMemoryRepository(), products)

	logger.Info("services ready",
		zap.String("provider", model.Name()),
		zap.String("schema_version", string(version)),
		zap.String("store", cfg.Store.Type),
		zap.String("api_key", cfg.MaskedAPIKey()),
		zap.Int("products", products.Len()),
	)

	return a, nil
}

// Close releases external connections
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
