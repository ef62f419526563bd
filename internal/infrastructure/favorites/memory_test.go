package favorites

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_AddListRemove(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "s1", "3"))
	require.NoError(t, repo.Add(ctx, "s1", "1"))
	require.NoError(t, repo.Add(ctx, "s1", "3"))

	ids, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, ids, "insertion order, no duplicates")

	ok, err := repo.Contains(ctx, "s1", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Remove(ctx, "s1", "3"))
	ids, _ = repo.List(ctx, "s1")
	assert.Equal(t, []string{"1"}, ids)

	require.NoError(t, repo.Remove(ctx, "s1", "missing"))
	ids, _ = repo.List(ctx, "s1")
	assert.Equal(t, []string{"1"}, ids)
}

func TestMemoryRepository_SessionsAreIsolated(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "a", "1"))
	require.NoError(t, repo.Add(ctx, "b", "2"))

	a, _ := repo.List(ctx, "a")
	b, _ := repo.List(ctx, "b")
	assert.Equal(t, []string{"1"}, a)
	assert.Equal(t, []string{"2"}, b)

	require.NoError(t, repo.Clear(ctx, "a"))
	a, _ = repo.List(ctx, "a")
	b, _ = repo.List(ctx, "b")
	assert.Empty(t, a)
	assert.Equal(t, []string{"2"}, b)
}

func TestMemoryRepository_ListReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, "s1", "1"))

	ids, _ := repo.List(ctx, "s1")
	ids[0] = "tampered"

	again, _ := repo.List(ctx, "s1")
	assert.Equal(t, []string{"1"}, again)
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Add(ctx, "s1", fmt.Sprintf("%d", i%10))
			_, _ = repo.Contains(ctx, "s1", "1")
			_, _ = repo.List(ctx, "s1")
		}(i)
	}
	wg.Wait()

	ids, _ := repo.List(ctx, "s1")
	assert.Len(t, ids, 10)
}
