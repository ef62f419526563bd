package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/productadvisor/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient is a thin wrapper around the official genai client
type GeminiClient struct {
	cli         *genai.Client
	model       string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

var _ domain.ChatModel = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini API client
func NewGeminiClient(ctx context.Context, apiKey, baseURL, model string, limiter *rate.Limiter, logger *zap.Logger) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeminiClient{
		cli:         cli,
		model:       model,
		rateLimiter: limiter,
		logger:      logger.Named("llm.gemini"),
	}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }

// CompleteJSON asks for application/json constrained by req.Schema and returns the model's JSON
func (g *GeminiClient) CompleteJSON(ctx context.Context, req *domain.ChatRequest) (json.RawMessage, error) {
	if g.rateLimiter != nil {
		if err := g.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	temperature := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  int32(req.MaxTokens),
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(req.Schema),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	start := time.Now()
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		config,
	)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("generate content",
		zap.String("model", g.model),
		zap.Int("prompt_bytes", len(req.Prompt)),
		zap.Duration("latency", time.Since(start)),
	)

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, domain.ErrEmptyCompletion
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, domain.ErrEmptyCompletion
	}
	return json.RawMessage(text), nil
}
