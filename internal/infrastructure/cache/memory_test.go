package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/productadvisor/backend/internal/domain"
)

func result(seq uint64, query string) *domain.SearchResult {
	return &domain.SearchResult{
		ID:        query,
		SessionID: "s1",
		Sequence:  seq,
		Query:     query,
		Recommendations: []domain.EnrichedRecommendation{
			{
				Product:    domain.Product{ID: "1", Brand: "LEAF", ProductName: "Bass Headphones", Price: 1200},
				Reason:     "Matches bass preference",
				Confidence: 0.78,
			},
		},
		Summary: "summary",
	}
}

func TestMemoryResultCache_SaveAndLatest(t *testing.T) {
	cache := NewMemoryResultCache(10, time.Minute)
	ctx := context.Background()

	stored, err := cache.Save(ctx, "s1", result(1, "headphones"))
	if err != nil || !stored {
		t.Fatalf("Save() = %v, %v; want true, nil", stored, err)
	}

	got, err := cache.Latest(ctx, "s1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.Query != "headphones" {
		t.Errorf("Latest().Query = %q, want %q", got.Query, "headphones")
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Confidence != 0.78 {
		t.Errorf("Latest().Recommendations = %+v", got.Recommendations)
	}
}

func TestMemoryResultCache_Miss(t *testing.T) {
	cache := NewMemoryResultCache(10, time.Minute)

	_, err := cache.Latest(context.Background(), "unknown")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Latest() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryResultCache_SequenceOrdering(t *testing.T) {
	tests := []struct {
		name       string
		first      uint64
		second     uint64
		wantStored bool
		wantQuery  string
	}{
		{"newer replaces", 1, 2, true, "second"},
		{"equal replaces", 2, 2, true, "second"},
		{"older is rejected", 3, 2, false, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryResultCache(10, time.Minute)
			ctx := context.Background()

			if _, err := cache.Save(ctx, "s1", result(tt.first, "first")); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			stored, err := cache.Save(ctx, "s1", result(tt.second, "second"))
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if stored != tt.wantStored {
				t.Errorf("Save() stored = %v, want %v", stored, tt.wantStored)
			}

			got, _ := cache.Latest(ctx, "s1")
			if got.Query != tt.wantQuery {
				t.Errorf("Latest().Query = %q, want %q", got.Query, tt.wantQuery)
			}
		})
	}
}

func TestMemoryResultCache_Expiration(t *testing.T) {
	cache := NewMemoryResultCache(10, 5*time.Millisecond)
	ctx := context.Background()

	if _, err := cache.Save(ctx, "s1", result(1, "q")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, err := cache.Latest(ctx, "s1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Expected cache miss after expiration, got error = %v", err)
	}
}

func TestMemoryResultCache_EvictsOldestSession(t *testing.T) {
	cache := NewMemoryResultCache(2, time.Minute)
	ctx := context.Background()

	for _, s := range []string{"a", "b", "c"} {
		if _, err := cache.Save(ctx, s, result(1, s)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if cache.Size() != 2 {
		t.Errorf("Size() = %d, want 2", cache.Size())
	}
	if _, err := cache.Latest(ctx, "a"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected session a to be evicted, got %v", err)
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", cache.Size())
	}
}

func TestMemoryResultCache_StoredCopyIsIsolated(t *testing.T) {
	cache := NewMemoryResultCache(10, time.Minute)
	ctx := context.Background()

	r := result(1, "q")
	_, _ = cache.Save(ctx, "s1", r)
	r.Recommendations[0].Reason = "mutated"

	got, _ := cache.Latest(ctx, "s1")
	if got.Recommendations[0].Reason != "Matches bass preference" {
		t.Errorf("stored result was mutated: %q", got.Recommendations[0].Reason)
	}
}

func TestMemoryResultCache_ConcurrentSavesKeepHighestSequence(t *testing.T) {
	cache := NewMemoryResultCache(10, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			_, _ = cache.Save(ctx, "s1", result(seq, "q"))
		}(uint64(i))
	}
	wg.Wait()

	got, err := cache.Latest(ctx, "s1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.Sequence != 50 {
		t.Errorf("Latest().Sequence = %d, want 50", got.Sequence)
	}
}
