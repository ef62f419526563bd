package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/productadvisor/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Supported providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures a chat provider
type Config struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerMinute int
}

// New creates the chat model named by cfg.Provider
func New(ctx context.Context, cfg Config, logger *zap.Logger) (domain.ChatModel, error) {
	limiter := newLimiter(cfg.RequestsPerMinute)

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, limiter, logger), nil
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, limiter, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// newLimiter returns nil when throttling is disabled
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
}
