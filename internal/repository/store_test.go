package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkshort/internal/repository"
	apperrors "linkshort/pkg/errors"
)

// runStoreSuite checks the Store contract. newStore must return an empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) repository.Store) {
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		s := newStore(t)
		before := time.Now().UTC().Add(-time.Second)

		m, err := s.Insert(ctx, "https://example.com", "abc123")
		require.NoError(t, err)
		assert.NotZero(t, m.ID)
		assert.Equal(t, "https://example.com", m.OriginalURL)
		assert.Equal(t, "abc123", m.ShortCode)
		assert.Equal(t, int64(0), m.Clicks)
		assert.True(t, m.CreatedAt.After(before))

		got, err := s.FindByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, m.ID, got.ID)
		assert.Equal(t, m.OriginalURL, got.OriginalURL)
		assert.Equal(t, int64(0), got.Clicks)
		assert.WithinDuration(t, m.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("ids increase", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Insert(ctx, "https://a.example", "aaaaaa")
		require.NoError(t, err)
		b, err := s.Insert(ctx, "https://b.example", "bbbbbb")
		require.NoError(t, err)
		assert.Greater(t, b.ID, a.ID)
	})

	t.Run("duplicate code is a conflict", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, "https://a.example", "dup123")
		require.NoError(t, err)

		_, err = s.Insert(ctx, "https://b.example", "dup123")
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		got, err := s.FindByCode(ctx, "dup123")
		require.NoError(t, err)
		assert.Equal(t, "https://a.example", got.OriginalURL)
	})

	t.Run("codes are case sensitive", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, "https://lower.example", "abcdef")
		require.NoError(t, err)
		_, err = s.Insert(ctx, "https://upper.example", "ABCDEF")
		require.NoError(t, err)

		got, err := s.FindByCode(ctx, "ABCDEF")
		require.NoError(t, err)
		assert.Equal(t, "https://upper.example", got.OriginalURL)
	})

	t.Run("unknown code", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindByCode(ctx, "nope42")
		assert.True(t, errors.Is(err, apperrors.ErrURLNotFound))

		_, err = s.IncrementClicks(ctx, "nope42")
		assert.True(t, errors.Is(err, apperrors.ErrURLNotFound))

		exists, err := s.ExistsByCode(ctx, "nope42")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("exists", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, "https://example.com", "here12")
		require.NoError(t, err)

		exists, err := s.ExistsByCode(ctx, "here12")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("increment clicks", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, "https://example.com", "clk123")
		require.NoError(t, err)

		m, err := s.IncrementClicks(ctx, "clk123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.Clicks)
		assert.Equal(t, "https://example.com", m.OriginalURL)

		m, err = s.IncrementClicks(ctx, "clk123")
		require.NoError(t, err)
		assert.Equal(t, int64(2), m.Clicks)

		got, err := s.FindByCode(ctx, "clk123")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Clicks)
	})

	t.Run("concurrent increments", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, "https://example.com", "con123")
		require.NoError(t, err)

		const n = 25
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.IncrementClicks(ctx, "con123"); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("increment: %v", err)
		}

		got, err := s.FindByCode(ctx, "con123")
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.Clicks)
	})

	t.Run("concurrent inserts of one code", func(t *testing.T) {
		s := newStore(t)

		const n = 10
		var wg sync.WaitGroup
		var mu sync.Mutex
		created, conflicts := 0, 0
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.Insert(ctx, fmt.Sprintf("https://%d.example", i), "race12")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case apperrors.IsConflict(err):
					conflicts++
				default:
					t.Errorf("insert: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, created)
		assert.Equal(t, n-1, conflicts)
	})

	t.Run("list all", func(t *testing.T) {
		s := newStore(t)

		empty, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		codes := []string{"one111", "two222", "thr333"}
		for i, code := range codes {
			_, err := s.Insert(ctx, fmt.Sprintf("https://%d.example", i), code)
			require.NoError(t, err)
		}
		_, err = s.IncrementClicks(ctx, "two222")
		require.NoError(t, err)

		first, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, first, 3)
		for i, m := range first {
			assert.Equal(t, codes[i], m.ShortCode)
		}
		assert.Equal(t, int64(1), first[1].Clicks)

		second, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(ctx))
	})
}
