package domain

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ChatRequest is a single schema-constrained completion request.
type ChatRequest struct {
	System      string
	Prompt      string
	SchemaName  string
	Schema      *jsonschema.Definition
	Temperature float32
	MaxTokens   int
}

// ChatModel defines the interface for a hosted LLM chat endpoint that answers in JSON
type ChatModel interface {
	Name() string
	CompleteJSON(ctx context.Context, req *ChatRequest) (json.RawMessage, error)
}

// RecommendationClient turns a query and a catalog into the model's raw recommendations
type RecommendationClient interface {
	GetRecommendations(ctx context.Context, query string, catalog []Product) (*RecommendationResponse, error)
}

// CatalogRepository exposes the read-only product catalog
type CatalogRepository interface {
	Products() []Product
	Get(id string) (Product, error)
}

// ResultCache keeps the latest search result per session.
// Save stores result only if its Sequence is not older than the stored one and reports whether it did.
type ResultCache interface {
	Save(ctx context.Context, sessionID string, result *SearchResult) (bool, error)
	Latest(ctx context.Context, sessionID string) (*SearchResult, error)
}

// FavoritesRepository stores favorite product ids per session, in insertion order
type FavoritesRepository interface {
	List(ctx context.Context, sessionID string) ([]string, error)
	Add(ctx context.Context, sessionID, productID string) error
	Remove(ctx context.Context, sessionID, productID string) error
	Contains(ctx context.Context, sessionID, productID string) (bool, error)
	Clear(ctx context.Context, sessionID string) error
}

// AlertSink surfaces alerts to the user. The pipeline never renders anything itself.
type AlertSink interface {
	Notify(title, message string, actions ...AlertAction)
}

// AlertFunc adapts a function to AlertSink.
type AlertFunc func(title, message string, actions ...AlertAction)

func (f AlertFunc) Notify(title, message string, actions ...AlertAction) {
	f(title, message, actions...)
}

// AlertRecorder collects alerts, e.g. to return them in an API response.
type AlertRecorder struct {
	Alerts []Alert
}

func (r *AlertRecorder) Notify(title, message string, actions ...AlertAction) {
	r.Alerts = append(r.Alerts, Alert{Title: title, Message: message, Actions: actions})
}

// NopAlertSink discards alerts.
type NopAlertSink struct{}

func (NopAlertSink) Notify(string, string, ...AlertAction) {}
