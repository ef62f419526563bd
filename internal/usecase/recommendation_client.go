package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/productadvisor/backend/internal/domain"
	"go.uber.org/zap"
)

// Default request parameters
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// RecommendationClientConfig holds the request parameters sent with every call
type RecommendationClientConfig struct {
	SchemaVersion domain.SchemaVersion
	Temperature   float32
	MaxTokens     int
}

// LLMRecommendationClient asks a chat model for recommendations with a schema-constrained response.
// It makes exactly one call per request: no retries, no caching, no timeout of its own.
type LLMRecommendationClient struct {
	model       domain.ChatModel
	version     domain.SchemaVersion
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewRecommendationClient creates a client on top of a chat model
func NewRecommendationClient(model domain.ChatModel, config RecommendationClientConfig, logger *zap.Logger) *LLMRecommendationClient {
	version := config.SchemaVersion
	if !version.Valid() {
		version = domain.SchemaProductID
	}

	temperature := config.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &LLMRecommendationClient{
		model:       model,
		version:     version,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger.Named("recommendation_client"),
	}
}

// GetRecommendations builds the prompt, performs the call and parses the reply.
// Every failure, whatever its cause, is reported as domain.ErrRequestFailed.
func (c *LLMRecommendationClient) GetRecommendations(
	ctx context.Context,
	query string,
	catalog []domain.Product,
) (*domain.RecommendationResponse, error) {
	req := &domain.ChatRequest{
		System:      SystemMessage,
		Prompt:      BuildPrompt(query, catalog, c.version),
		SchemaName:  ResponseSchemaName,
		Schema:      ResponseSchema(c.version),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()
	raw, err := c.model.CompleteJSON(ctx, req)
	if err != nil {
		c.logger.Error("llm call failed",
			zap.String("model", c.model.Name()),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRequestFailed, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		c.logger.Error("llm returned a non-object document",
			zap.String("model", c.model.Name()),
			zap.Int("bytes", len(raw)))
		return nil, fmt.Errorf("%w: response is not a JSON object", domain.ErrRequestFailed)
	}

	var resp domain.RecommendationResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		c.logger.Error("llm returned invalid JSON",
			zap.String("model", c.model.Name()),
			zap.Int("bytes", len(raw)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrRequestFailed, err)
	}

	c.logger.Info("llm call completed",
		zap.String("model", c.model.Name()),
		zap.Int("prompt_bytes", len(req.Prompt)),
		zap.Int("candidates", len(resp.Recommendations)),
		zap.Duration("latency", time.Since(start)))

	return &resp, nil
}
