package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
	"github.com/dharsanguruparan/VaultBox/internal/repository/repotest"
)

// steppedStore returns a store whose clock only moves when advance is called.
func steppedStore() (*MemoryStore, repotest.Advance) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})
	return m, func() {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
	}
}

func TestMemoryUsers(t *testing.T) {
	m, _ := steppedStore()
	repotest.RunUserTests(t, m)
}

func TestMemoryFiles(t *testing.T) {
	m, advance := steppedStore()
	repotest.RunFileTests(t, m, advance)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	_, err := m.CreateFile(ctx, &model.FileItem{ID: "f1", UserID: "u1", Name: "a", Type: model.TypeText})
	require.NoError(t, err)

	got, err := m.GetFileByID(ctx, "f1", "u1")
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := m.GetFileByID(ctx, "f1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Name)
}

func TestMemoryConcurrentRegistration(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.CreateUser(ctx, &model.User{ID: fmt.Sprintf("u%d", i), Email: "same@example.com"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	}
	assert.Equal(t, 1, created)
}

func TestSortNewestFirstBreaksTiesByID(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []model.FileItem{
		{ID: "a", CreatedAt: at},
		{ID: "c", CreatedAt: at.Add(-time.Second)},
		{ID: "b", CreatedAt: at},
	}
	SortNewestFirst(files)
	assert.Equal(t, "b", files[0].ID)
	assert.Equal(t, "a", files[1].ID)
	assert.Equal(t, "c", files[2].ID)
}

func TestMatchesQuery(t *testing.T) {
	f := &model.FileItem{Name: "Q1 Report.pdf", Details: "Finance"}
	assert.True(t, MatchesQuery(f, "report"))
	assert.True(t, MatchesQuery(f, "FIN"))
	assert.False(t, MatchesQuery(f, "q2"))
}
