// Package storage contains the in-memory persistence layer used for local runs
// and tests. It satisfies both repository interfaces.
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
)

// MemoryStore keeps users and files in maps guarded by an RWMutex. Readers
// (list, search, stats) take the shared lock and can run together; writers
// take the exclusive lock. Email uniqueness is checked and recorded under the
// same write lock, so two concurrent registrations cannot both win.
//
// Every method hands out copies. Returning the stored pointer would let a
// caller mutate a record without holding the lock.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
	files   map[string]*model.FileItem
	now     func() time.Time
}

var (
	_ repository.UserRepository = (*MemoryStore)(nil)
	_ repository.FileRepository = (*MemoryStore)(nil)
)

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		files:   make(map[string]*model.FileItem),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for record timestamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// CreateUser inserts a user, rejecting a taken email with ErrDuplicate.
func (m *MemoryStore) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[user.Email]; taken {
		return nil, repository.ErrDuplicate
	}
	rec := *user
	now := m.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	m.users[rec.ID] = &rec
	m.byEmail[rec.Email] = rec.ID
	out := rec
	return &out, nil
}

// FindUserByEmail returns a copy of the user with that exact email.
func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *m.users[id]
	return &out, nil
}

// FindUserByID returns a copy of the user.
func (m *MemoryStore) FindUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *rec
	return &out, nil
}

// UpdateUser merges the patch and keeps the email index in sync.
func (m *MemoryStore) UpdateUser(_ context.Context, id string, patch model.UserPatch) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Email != nil && *patch.Email != rec.Email {
		if _, taken := m.byEmail[*patch.Email]; taken {
			return nil, repository.ErrDuplicate
		}
		delete(m.byEmail, rec.Email)
		m.byEmail[*patch.Email] = id
	}
	patch.Apply(rec, m.now())
	out := *rec
	return &out, nil
}

// CreateFile inserts a file record.
func (m *MemoryStore) CreateFile(_ context.Context, file *model.FileItem) (*model.FileItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := *file
	now := m.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	m.files[rec.ID] = &rec
	out := rec
	return &out, nil
}

// GetFilesByUserID lists the owner's files, newest first.
func (m *MemoryStore) GetFilesByUserID(_ context.Context, userID string) ([]model.FileItem, error) {
	return m.collect(func(f *model.FileItem) bool { return f.UserID == userID }), nil
}

// GetFileByID returns the file only when it belongs to userID.
func (m *MemoryStore) GetFileByID(_ context.Context, id, userID string) (*model.FileItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.files[id]
	if !ok || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	out := *rec
	return &out, nil
}

// UpdateFile merges the patch into the owner's file.
func (m *MemoryStore) UpdateFile(_ context.Context, id, userID string, patch model.FilePatch) (*model.FileItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.files[id]
	if !ok || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	patch.Apply(rec, m.now())
	out := *rec
	return &out, nil
}

// DeleteFile removes the owner's file.
func (m *MemoryStore) DeleteFile(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.files[id]
	if !ok || rec.UserID != userID {
		return false, nil
	}
	delete(m.files, id)
	return true, nil
}

// SearchFiles matches query case-insensitively against name or details.
func (m *MemoryStore) SearchFiles(_ context.Context, userID, query string) ([]model.FileItem, error) {
	return m.collect(func(f *model.FileItem) bool {
		return f.UserID == userID && MatchesQuery(f, query)
	}), nil
}

// GetFileStats counts the owner's files by type.
func (m *MemoryStore) GetFileStats(_ context.Context, userID string) (model.FileStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats model.FileStats
	for _, f := range m.files {
		if f.UserID == userID {
			stats.Add(f.Type, 1)
		}
	}
	return stats, nil
}

// MatchesQuery reports whether name or details contains query, ignoring case.
func MatchesQuery(f *model.FileItem, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(f.Name), q) ||
		strings.Contains(strings.ToLower(f.Details), q)
}

func (m *MemoryStore) collect(keep func(*model.FileItem) bool) []model.FileItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.FileItem{}
	for _, f := range m.files {
		if keep(f) {
			out = append(out, *f)
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders files by creation time, newest first. Ties fall back
// to id so the order is stable.
func SortNewestFirst(files []model.FileItem) {
	sort.Slice(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return files[i].ID > files[j].ID
	})
}
