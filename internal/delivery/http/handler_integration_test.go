package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/productadvisor/backend/config"
	"github.com/productadvisor/backend/internal/domain"
	"github.com/productadvisor/backend/internal/infrastructure/cache"
	"github.com/productadvisor/backend/internal/infrastructure/catalog"
	"github.com/productadvisor/backend/internal/infrastructure/favorites"
	"github.com/productadvisor/backend/internal/infrastructure/llm"
	"github.com/productadvisor/backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const modelAnswer = `{
  "recommendations": [
    {"product_id": "2", "reason": "Comfortable on-ear fit", "confidence_score": 0.65},
    {"product_id": "1", "reason": "Deep bass within budget", "confidence_score": 0.78},
    {"product_id": "404", "reason": "Invented product", "confidence_score": 0.99}
  ],
  "summary": "Affordable bass-heavy headphones",
  "search_context": "headphones under 1500 with good bass"
}`

// fakeModel serves OpenAI chat completions with a fixed answer
type fakeModel struct {
	server *httptest.Server
	calls  int32
}

func newFakeModel(t *testing.T, status int, content string) *fakeModel {
	t.Helper()
	f := &fakeModel{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeModel) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

// setupTestRouter wires the full stack against a fake model endpoint
func setupTestRouter(t *testing.T, model *fakeModel) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	products, err := catalog.Load("", domain.SchemaProductID, nil)
	require.NoError(t, err)

	chat := llm.NewOpenAIClient("test-api-key", model.server.URL, "", nil, nil)
	client := usecase.NewRecommendationClient(chat, usecase.RecommendationClientConfig{}, nil)
	advisor := usecase.NewAdvisorService(products, client, nil, cache.NewMemoryResultCache(100, time.Minute), nil)
	favs := usecase.NewFavoritesService(favorites.NewMemoryRepository(), products)

	return SetupRouter(cfg, NewHandler(advisor, favs, nil), nil)
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(t, newFakeModel(t, http.StatusOK, modelAnswer))

	w := doJSON(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", resp["status"])
	assert.EqualValues(t, 15, resp["products"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestProductEndpoints(t *testing.T) {
	router := setupTestRouter(t, newFakeModel(t, http.StatusOK, modelAnswer))

	t.Run("lists the catalog", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/products", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[struct {
			Products []ProductView `json:"products"`
			Count    int           `json:"count"`
		}](t, w)
		assert.Equal(t, 15, resp.Count)
		assert.Equal(t, "1", resp.Products[0].ID)
		assert.Equal(t, "₹1,200", resp.Products[0].FormattedPrice)
	})

	t.Run("gets one product", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/products/10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		p := decode[ProductView](t, w)
		assert.Equal(t, "IdeaPad Slim 3", p.ProductName)
		assert.Equal(t, "₹42,990", p.FormattedPrice)
		assert.Contains(t, p.Details, "Price: ₹42,990\nBrand: Lenovo")
	})

	t.Run("unknown product", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/products/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRecommendEndpoint_Success(t *testing.T) {
	model := newFakeModel(t, http.StatusOK, modelAnswer)
	router := setupTestRouter(t, model)

	w := doJSON(router, http.MethodPost, "/api/v1/recommendations", RecommendationRequest{
		Query: "headphones under 1500 with good bass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, model.callCount())

	resp := decode[SearchResponse](t, w)
	require.Len(t, resp.Recommendations, 2)

	first := resp.Recommendations[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "LEAF", first.Brand)
	assert.Equal(t, "Deep bass within budget", first.Reason)
	assert.Equal(t, 0.78, first.Confidence)
	assert.Equal(t, 78, first.ConfidencePercent)
	assert.Equal(t, usecase.BandMedium, first.ConfidenceBand)
	assert.Equal(t, "₹1,200", first.FormattedPrice)

	assert.Equal(t, "2", resp.Recommendations[1].ID)
	assert.Equal(t, "Affordable bass-heavy headphones", resp.Summary)
	assert.Equal(t, "headphones under 1500 with good bass", resp.SearchContext)

	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, domain.WarningNotInCatalog, resp.Warnings[0].Reason)
	assert.Empty(t, resp.Alerts)
	assert.False(t, resp.Stale)
}

func TestRecommendEndpoint_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantKind string
		wantMsg  string
	}{
		{"empty", "", domain.ValidationKindEmpty, domain.EmptyQueryMessage},
		{"whitespace", "   \t", domain.ValidationKindEmpty, domain.EmptyQueryMessage},
		{"too short", " ab ", domain.ValidationKindShort, domain.ShortQueryMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newFakeModel(t, http.StatusOK, modelAnswer)
			router := setupTestRouter(t, model)

			w := doJSON(router, http.MethodPost, "/api/v1/recommendations", RecommendationRequest{Query: tt.query})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[struct {
				Error   string         `json:"error"`
				Kind    string         `json:"kind"`
				Message string         `json:"message"`
				Alerts  []domain.Alert `json:"alerts"`
			}](t, w)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error)
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.Equal(t, tt.wantMsg, resp.Message)
			require.Len(t, resp.Alerts, 1)
			assert.Equal(t, tt.wantMsg, resp.Alerts[0].Message)
			assert.Equal(t, 0, model.callCount(), "model must not be called")
		})
	}
}

func TestRecommendEndpoint_RequestFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"upstream error", http.StatusInternalServerError, ""},
		{"unparseable answer", http.StatusOK, "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newFakeModel(t, tt.status, tt.content)
			router := setupTestRouter(t, model)

			w := doJSON(router, http.MethodPost, "/api/v1/recommendations", RecommendationRequest{Query: "gaming laptop"})

			assert.Equal(t, http.StatusBadGateway, w.Code)
			resp := decode[map[string]any](t, w)
			assert.Equal(t, domain.RequestFailureKind, resp["error"])
			assert.Equal(t, domain.APIErrorMessage, resp["message"])

			alerts := resp["alerts"].([]any)
			require.Len(t, alerts, 1)
			alert := alerts[0].(map[string]any)
			assert.Equal(t, domain.ErrorAlertTitle, alert["title"])
			assert.Equal(t, 1, model.callCount(), "exactly one attempt")
		})
	}
}

func TestRecommendEndpoint_InvalidBody(t *testing.T) {
	router := setupTestRouter(t, newFakeModel(t, http.StatusOK, modelAnswer))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionResults(t *testing.T) {
	router := setupTestRouter(t, newFakeModel(t, http.StatusOK, modelAnswer))

	w := doJSON(router, http.MethodGet, "/api/v1/sessions/s1/results/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/recommendations", RecommendationRequest{
		Query: "second query", SessionID: "s1", Sequence: 2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[SearchResponse](t, w).Stale)

	// An older request finishing later is returned but flagged stale
	w = doJSON(router, http.MethodPost, "/api/v1/recommendations", RecommendationRequest{
		Query: "first query", SessionID: "s1", Sequence: 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[SearchResponse](t, w).Stale)

	w = doJSON(router, http.MethodGet, "/api/v1/sessions/s1/results/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	latest := decode[SearchResponse](t, w)
	assert.Equal(t, "second query", latest.Query)
	assert.Equal(t, uint64(2), latest.Sequence)
	assert.Len(t, latest.Recommendations, 2)
}

func TestSessionResults_RequiresSequence(t *testing.T) {
	model := newFakeModel(t, http.StatusOK, modelAnswer)
	router := setupTestRouter(t, model)

	w := doJSON(router, http.MethodPost, "/api/v1/recommendations", RecommendationRequest{
		Query: "gaming laptop", SessionID: "s1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[map[string]any](t, w)["error"])
	assert.Equal(t, 0, model.callCount(), "model must not be called")

	// A client counter starting at 1 is not shadowed by an earlier request
	w = doJSON(router, http.MethodPost, "/api/v1/recommendations", RecommendationRequest{
		Query: "gaming laptop", SessionID: "s1", Sequence: 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[SearchResponse](t, w).Stale)
}

func TestFavoritesEndpoints(t *testing.T) {
	router := setupTestRouter(t, newFakeModel(t, http.StatusOK, modelAnswer))
	base := "/api/v1/sessions/s1/favorites"

	w := doJSON(router, http.MethodPut, base+"/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPut, base+"/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, base+"/3/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["favorite"])

	w = doJSON(router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Favorites []ProductView `json:"favorites"`
		Count     int           `json:"count"`
	}](t, w)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "1", list.Favorites[0].ID)
	assert.Equal(t, "3", list.Favorites[1].ID)

	w = doJSON(router, http.MethodDelete, base+"/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, base+"/3/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["favorite"])

	w = doJSON(router, http.MethodPut, base+"/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, base, nil)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["count"])
}
