package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/productadvisor/backend/internal/domain"
	"go.uber.org/zap"
)

// AdvisorService runs the recommendation pipeline:
// validate -> ask the model -> resolve against the catalog -> rank.
// It holds no mutable state of its own; concurrent searches are independent.
type AdvisorService struct {
	catalog domain.CatalogRepository
	client  domain.RecommendationClient
	matcher *MatchingService
	results domain.ResultCache
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewAdvisorService creates a new advisor service with dependencies.
// results may be nil when session tracking is not needed.
func NewAdvisorService(
	catalog domain.CatalogRepository,
	client domain.RecommendationClient,
	matcher *MatchingService,
	results domain.ResultCache,
	logger *zap.Logger,
) *AdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matcher == nil {
		matcher = NewMatchingService(MatchConfig{}, logger)
	}

	return &AdvisorService{
		catalog: catalog,
		client:  client,
		matcher: matcher,
		results: results,
		logger:  logger.Named("advisor"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Search runs one recommendation request.
//
// A rejected query is reported to alerts and returned as a *domain.ValidationError;
// the model is not called. A failed model call is reported to alerts and returned as
// domain.ErrRequestFailed together with an empty result. A nil alerts discards alerts.
func (s *AdvisorService) Search(ctx context.Context, query string, alerts domain.AlertSink) (*domain.SearchResult, error) {
	if alerts == nil {
		alerts = domain.NopAlertSink{}
	}

	if err := ValidateQuery(query); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			alerts.Notify(domain.ErrorAlertTitle, verr.Message())
		}
		return nil, err
	}

	result := &domain.SearchResult{
		ID:              s.newID(),
		Query:           query,
		Recommendations: []domain.EnrichedRecommendation{},
		CreatedAt:       s.now(),
	}

	products := s.catalog.Products()

	resp, err := s.client.GetRecommendations(ctx, query, products)
	if err != nil {
		if !errors.Is(err, domain.ErrRequestFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrRequestFailed, err)
		}
		s.logger.Error("search failed", zap.String("search_id", result.ID), zap.Error(err))
		alerts.Notify(domain.ErrorAlertTitle, domain.APIErrorMessage, domain.OKAction)
		return result, err
	}

	recommendations, warnings := s.matcher.Resolve(resp.Recommendations, products)

	result.Recommendations = recommendations
	result.Warnings = warnings
	result.Summary = resp.Summary
	result.SearchContext = resp.SearchContext

	s.logger.Info("search completed",
		zap.String("search_id", result.ID),
		zap.Int("candidates", len(resp.Recommendations)),
		zap.Int("recommendations", len(recommendations)),
		zap.Int("dropped", len(warnings)))

	return result, nil
}

// SearchForSession runs Search and records the result as the session's latest,
// unless a result with a newer sequence number is already stored. Such a stale
// result is still returned, with Stale set. Failed searches leave the stored result untouched.
func (s *AdvisorService) SearchForSession(
	ctx context.Context,
	sessionID string,
	sequence uint64,
	query string,
	alerts domain.AlertSink,
) (*domain.SearchResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidRequest)
	}

	result, err := s.Search(ctx, query, alerts)
	if result != nil {
		result.SessionID = sessionID
		result.Sequence = sequence
	}
	if err != nil || s.results == nil {
		return result, err
	}

	stored, cacheErr := s.results.Save(ctx, sessionID, result)
	if cacheErr != nil {
		// Log but don't fail the search if caching fails
		s.logger.Warn("could not store session result",
			zap.String("session_id", sessionID),
			zap.Error(cacheErr))
		return result, nil
	}
	if !stored {
		result.Stale = true
		s.logger.Info("discarded stale result",
			zap.String("session_id", sessionID),
			zap.Uint64("sequence", sequence))
	}

	return result, nil
}

// LatestResult returns the most recent stored result for a session
func (s *AdvisorService) LatestResult(ctx context.Context, sessionID string) (*domain.SearchResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidRequest)
	}
	if s.results == nil {
		return nil, domain.ErrCacheMiss
	}
	return s.results.Latest(ctx, sessionID)
}

// Catalog returns the catalog the service recommends from
func (s *AdvisorService) Catalog() domain.CatalogRepository {
	return s.catalog
}
