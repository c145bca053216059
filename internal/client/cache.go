package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/storage"
)

// Cache keeps the last known file list per user as a JSON file, the way the
// browser kept it in local storage.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// NewCache creates dir if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Files returns the cached files for userID, or nil when nothing is cached.
func (c *Cache) Files(userID string) ([]model.FileItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(userID)
}

// Save replaces the cached list for userID.
func (c *Cache) Save(userID string, files []model.FileItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(userID, files)
}

// Put inserts or replaces one file.
func (c *Cache) Put(userID string, file model.FileItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	files, err := c.read(userID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range files {
		if files[i].ID == file.ID {
			files[i] = file
			replaced = true
			break
		}
	}
	if !replaced {
		files = append(files, file)
	}
	return c.write(userID, files)
}

// Delete drops one file from the cached list.
func (c *Cache) Delete(userID, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	files, err := c.read(userID)
	if err != nil {
		return err
	}
	kept := files[:0]
	for _, f := range files {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	return c.write(userID, kept)
}

// Lookup finds a cached file by id. It returns nil, nil when absent.
func (c *Cache) Lookup(userID, id string) (*model.FileItem, error) {
	files, err := c.Files(userID)
	if err != nil {
		return nil, err
	}
	for i := range files {
		if files[i].ID == id {
			return &files[i], nil
		}
	}
	return nil, nil
}

// Search filters the cached list the same way the server does.
func (c *Cache) Search(userID, query string) ([]model.FileItem, error) {
	files, err := c.Files(userID)
	if err != nil {
		return nil, err
	}
	out := []model.FileItem{}
	for i := range files {
		if storage.MatchesQuery(&files[i], query) {
			out = append(out, files[i])
		}
	}
	storage.SortNewestFirst(out)
	return out, nil
}

// Stats counts the cached files by type.
func (c *Cache) Stats(userID string) (model.FileStats, error) {
	var stats model.FileStats
	files, err := c.Files(userID)
	if err != nil {
		return stats, err
	}
	for _, f := range files {
		stats.Add(f.Type, 1)
	}
	return stats, nil
}

func (c *Cache) path(userID string) string {
	return filepath.Join(c.dir, "user_"+url.PathEscape(userID)+".json")
}

func (c *Cache) read(userID string) ([]model.FileItem, error) {
	data, err := os.ReadFile(c.path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	var files []model.FileItem
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	return files, nil
}

func (c *Cache) write(userID string, files []model.FileItem) error {
	if files == nil {
		files = []model.FileItem{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp := c.path(userID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path(userID)); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}
