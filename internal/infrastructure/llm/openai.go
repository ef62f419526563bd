package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/productadvisor/backend/internal/domain"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient handles communication with an OpenAI compatible chat completions endpoint
type OpenAIClient struct {
	client      *openai.Client
	model       string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

var _ domain.ChatModel = (*OpenAIClient)(nil)

// NewOpenAIClient creates a new OpenAI chat client.
// baseURL may point at a proxy that holds the credential, in which case apiKey can be empty.
func NewOpenAIClient(apiKey, baseURL, model string, limiter *rate.Limiter, logger *zap.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		rateLimiter: limiter,
		logger:      logger.Named("llm.openai"),
	}
}

func (c *OpenAIClient) Name() string { return "openai:" + c.model }

// CompleteJSON performs a single chat completion constrained to req.Schema
func (c *OpenAIClient) CompleteJSON(ctx context.Context, req *domain.ChatRequest) (json.RawMessage, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: true,
			},
		}
	} else {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn("chat completion rejected",
				zap.Int("status", apiErr.HTTPStatusCode),
				zap.String("message", apiErr.Message),
			)
		}
		return nil, err
	}

	c.logger.Debug("chat completion",
		zap.String("model", c.model),
		zap.Int("prompt_bytes", len(req.Prompt)),
		zap.Duration("latency", time.Since(start)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	if len(resp.Choices) == 0 {
		return nil, domain.ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, domain.ErrEmptyCompletion
	}
	return json.RawMessage(content), nil
}
