package usecase

import (
	"context"
	"fmt"

	"github.com/productadvisor/backend/internal/domain"
)

// FavoritesService manages the products a session has marked as favorite
type FavoritesService struct {
	repo    domain.FavoritesRepository
	catalog domain.CatalogRepository
}

// NewFavoritesService creates a favorites service backed by repo
func NewFavoritesService(repo domain.FavoritesRepository, catalog domain.CatalogRepository) *FavoritesService {
	return &FavoritesService{repo: repo, catalog: catalog}
}

// List returns the session's favorite products in the order they were added.
// Ids no longer present in the catalog are skipped.
func (s *FavoritesService) List(ctx context.Context, sessionID string) ([]domain.Product, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidRequest)
	}

	ids, err := s.repo.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.catalog.Get(id)
		if err != nil {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// Add marks a product as favorite. Adding an existing favorite is a no-op.
func (s *FavoritesService) Add(ctx context.Context, sessionID, productID string) error {
	if err := s.check(sessionID, productID); err != nil {
		return err
	}
	return s.repo.Add(ctx, sessionID, productID)
}

// Remove unmarks a product. Removing a product that is not a favorite is a no-op.
func (s *FavoritesService) Remove(ctx context.Context, sessionID, productID string) error {
	if sessionID == "" || productID == "" {
		return fmt.Errorf("%w: session id and product id are required", domain.ErrInvalidRequest)
	}
	return s.repo.Remove(ctx, sessionID, productID)
}

// Toggle flips the favorite state of a product and returns the new state
func (s *FavoritesService) Toggle(ctx context.Context, sessionID, productID string) (bool, error) {
	if err := s.check(sessionID, productID); err != nil {
		return false, err
	}

	exists, err := s.repo.Contains(ctx, sessionID, productID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.repo.Remove(ctx, sessionID, productID)
	}
	return true, s.repo.Add(ctx, sessionID, productID)
}

// IsFavorite reports whether a product is marked as favorite
func (s *FavoritesService) IsFavorite(ctx context.Context, sessionID, productID string) (bool, error) {
	if sessionID == "" || productID == "" {
		return false, nil
	}
	return s.repo.Contains(ctx, sessionID, productID)
}

// Count returns how many favorites the session has
func (s *FavoritesService) Count(ctx context.Context, sessionID string) (int, error) {
	ids, err := s.repo.List(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Clear removes all favorites of a session
func (s *FavoritesService) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidRequest)
	}
	return s.repo.Clear(ctx, sessionID)
}

func (s *FavoritesService) check(sessionID, productID string) error {
	if sessionID == "" || productID == "" {
		return fmt.Errorf("%w: session id and product id are required", domain.ErrInvalidRequest)
	}
	if _, err := s.catalog.Get(productID); err != nil {
		return err
	}
	return nil
}
