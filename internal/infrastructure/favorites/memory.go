package favorites

import (
	"context"
	"sync"

	"github.com/productadvisor/backend/internal/domain"
)

// MemoryRepository is a thread-safe in-memory favorites store keyed by session
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string][]string
}

var _ domain.FavoritesRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty favorites store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string][]string)}
}

// List returns a copy of the session's favorite ids in insertion order
func (r *MemoryRepository) List(ctx context.Context, sessionID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.sessions[sessionID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// Add appends productID unless it is already present
func (r *MemoryRepository) Add(ctx context.Context, sessionID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.sessions[sessionID]
	for _, id := range ids {
		if id == productID {
			return nil
		}
	}
	r.sessions[sessionID] = append(ids, productID)
	return nil
}

// Remove deletes productID from the session if present
func (r *MemoryRepository) Remove(ctx context.Context, sessionID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.sessions[sessionID]
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != productID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(r.sessions, sessionID)
		return nil
	}
	r.sessions[sessionID] = kept
	return nil
}

// Contains reports whether productID is a favorite of the session
func (r *MemoryRepository) Contains(ctx context.Context, sessionID, productID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.sessions[sessionID] {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}

// Clear removes every favorite of the session
func (r *MemoryRepository) Clear(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}
