package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/productadvisor/backend/internal/domain"
	"github.com/productadvisor/backend/internal/usecase"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	advisor   *usecase.AdvisorService
	favorites *usecase.FavoritesService
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(advisor *usecase.AdvisorService, favorites *usecase.FavoritesService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		advisor:   advisor,
		favorites: favorites,
		logger:    logger.Named("http"),
	}
}

// RecommendationRequest is the body of POST /api/v1/recommendations.
// Sequence must be positive when SessionID is set.
type RecommendationRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	Sequence  uint64 `json:"sequence,omitempty"`
}

// ProductView is a catalog product with display fields
type ProductView struct {
	domain.Product
	FormattedPrice string `json:"formatted_price"`
	Details        string `json:"details"`
}

// RecommendationView is one ranked recommendation with display fields
type RecommendationView struct {
	domain.Product
	Reason            string  `json:"reason"`
	Confidence        float64 `json:"confidence"`
	ConfidencePercent int     `json:"confidence_percent"`
	ConfidenceBand    string  `json:"confidence_band"`
	FormattedPrice    string  `json:"formatted_price"`
}

// SearchResponse is the body returned for a recommendation request
type SearchResponse struct {
	ID              string                `json:"id"`
	SessionID       string                `json:"session_id,omitempty"`
	Sequence        uint64                `json:"sequence,omitempty"`
	Query           string                `json:"query"`
	Recommendations []RecommendationView  `json:"recommendations"`
	Summary         string                `json:"summary"`
	SearchContext   string                `json:"search_context"`
	Warnings        []domain.MatchWarning `json:"warnings"`
	Stale           bool                  `json:"stale"`
	Alerts          []domain.Alert        `json:"alerts"`
	CreatedAt       time.Time             `json:"created_at"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "productadvisor-backend",
		"version":  "1.0.0",
		"products": len(h.advisor.Catalog().Products()),
	})
}

// ListProducts returns the whole catalog
func (h *Handler) ListProducts(c *gin.Context) {
	products := h.advisor.Catalog().Products()
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": views, "count": len(views)})
}

// GetProduct returns one catalog product
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.advisor.Catalog().Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, productView(p))
}

// Recommend runs the recommendation pipeline for a query
func (h *Handler) Recommend(c *gin.Context) {
	var req RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": "request body must be JSON with a query field",
		})
		return
	}

	// Sequences are client counters, so a session request must carry one
	if req.SessionID != "" && req.Sequence == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": "sequence is required when session_id is set",
		})
		return
	}

	alerts := &domain.AlertRecorder{}
	var (
		result *domain.SearchResult
		err    error
	)
	if req.SessionID != "" {
		result, err = h.advisor.SearchForSession(c.Request.Context(), req.SessionID, req.Sequence, req.Query, alerts)
	} else {
		result, err = h.advisor.Search(c.Request.Context(), req.Query, alerts)
	}

	if err != nil {
		h.respondSearchError(c, err, alerts.Alerts)
		return
	}

	c.JSON(http.StatusOK, searchResponse(result, alerts.Alerts))
}

// LatestResult returns the latest stored result of a session
func (h *Handler) LatestResult(c *gin.Context) {
	result, err := h.advisor.LatestResult(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse(result, nil))
}

// ListFavorites returns the session's favorite products
func (h *Handler) ListFavorites(c *gin.Context) {
	products, err := h.favorites.List(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p))
	}
	c.JSON(http.StatusOK, gin.H{"favorites": views, "count": len(views)})
}

// AddFavorite marks a product as favorite
func (h *Handler) AddFavorite(c *gin.Context) {
	if err := h.favorites.Add(c.Request.Context(), c.Param("session_id"), c.Param("product_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("product_id"), "favorite": true})
}

// RemoveFavorite unmarks a product
func (h *Handler) RemoveFavorite(c *gin.Context) {
	if err := h.favorites.Remove(c.Request.Context(), c.Param("session_id"), c.Param("product_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("product_id"), "favorite": false})
}

// ToggleFavorite flips the favorite state of a product
func (h *Handler) ToggleFavorite(c *gin.Context) {
	on, err := h.favorites.Toggle(c.Request.Context(), c.Param("session_id"), c.Param("product_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("product_id"), "favorite": on})
}

// ClearFavorites removes all favorites of a session
func (h *Handler) ClearFavorites(c *gin.Context) {
	if err := h.favorites.Clear(c.Request.Context(), c.Param("session_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondSearchError(c *gin.Context, err error, alerts []domain.Alert) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "VALIDATION_ERROR",
			"kind":    verr.Kind,
			"message": verr.Message(),
			"alerts":  alerts,
		})
	case errors.Is(err, domain.ErrRequestFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   domain.RequestFailureKind,
			"message": domain.APIErrorMessage,
			"alerts":  alerts,
		})
	default:
		h.respondError(c, err)
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": err.Error()})
	case errors.Is(err, domain.ErrCacheMiss):
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "no result stored for this session"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": domain.GenericErrorMessage})
	}
}

func productView(p domain.Product) ProductView {
	return ProductView{
		Product:        p,
		FormattedPrice: usecase.FormatPriceINR(p.Price),
		Details:        usecase.FormatProductDetails(p),
	}
}

func searchResponse(result *domain.SearchResult, alerts []domain.Alert) SearchResponse {
	recs := make([]RecommendationView, 0, len(result.Recommendations))
	for _, r := range result.Recommendations {
		recs = append(recs, RecommendationView{
			Product:           r.Product,
			Reason:            r.Reason,
			Confidence:        r.Confidence,
			ConfidencePercent: usecase.ConfidencePercent(r.Confidence),
			ConfidenceBand:    usecase.ConfidenceBand(r.Confidence),
			FormattedPrice:    usecase.FormatPriceINR(r.Price),
		})
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []domain.MatchWarning{}
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}

	return SearchResponse{
		ID:              result.ID,
		SessionID:       result.SessionID,
		Sequence:        result.Sequence,
		Query:           result.Query,
		Recommendations: recs,
		Summary:         result.Summary,
		SearchContext:   result.SearchContext,
		Warnings:        warnings,
		Stale:           result.Stale,
		Alerts:          alerts,
		CreatedAt:       result.CreatedAt,
	}
}
