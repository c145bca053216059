// Package client is the Go counterpart of the browser data gateway: a thin
// HTTP client over the VaultBox API. File operations never fail loudly; they
// degrade to cached or empty results so a UI keeps working while the server
// is unreachable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/storage"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// RegisterData is the registration form.
type RegisterData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// UserUpdate is a profile update; empty fields are ignored by the server.
type UserUpdate struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
}

// NewFile is the payload for AddFile.
type NewFile struct {
	Name    string         `json:"name"`
	Type    model.FileType `json:"type"`
	Size    int64          `json:"size"`
	Content string         `json:"content"`
	Details string         `json:"details,omitempty"`
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.http = c }
}

// WithCache enables the local fallback cache.
func WithCache(c *Cache) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithToken sets the session token sent as a bearer credential.
func WithToken(token string) Option {
	return func(g *Gateway) { g.token = token }
}

// Gateway talks to one VaultBox server.
type Gateway struct {
	base  string
	http  *http.Client
	cache *Cache
	log   *zap.Logger

	mu    sync.RWMutex
	token string
}

// New creates a Gateway for the server at baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Token returns the session token from the last successful login/register.
func (g *Gateway) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

type sessionEnvelope struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an account and keeps the returned session token.
func (g *Gateway) Register(ctx context.Context, data RegisterData) (*model.User, error) {
	return g.session(ctx, "/auth/register", data)
}

// Login authenticates and keeps the returned session token.
func (g *Gateway) Login(ctx context.Context, email, password string) (*model.User, error) {
	return g.session(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (g *Gateway) session(ctx context.Context, path string, body any) (*model.User, error) {
	var out sessionEnvelope
	if err := g.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.token = out.Token
	g.mu.Unlock()
	return out.User, nil
}

// GetUser fetches a profile.
func (g *Gateway) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	if err := g.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// UpdateUser applies a profile update.
func (g *Gateway) UpdateUser(ctx context.Context, userID string, update UserUpdate) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	if err := g.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), update, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

type filesEnvelope struct {
	Files []model.FileItem `json:"files"`
}

type fileEnvelope struct {
	File *model.FileItem `json:"file"`
}

// GetFiles lists the user's files. On failure it returns the cached list when
// the server is unreachable, otherwise an empty list.
func (g *Gateway) GetFiles(ctx context.Context, userID string) []model.FileItem {
	var out filesEnvelope
	err := g.do(ctx, http.MethodGet, "/files?"+url.Values{"userId": {userID}}.Encode(), nil, &out)
	if err == nil {
		if out.Files == nil {
			out.Files = []model.FileItem{}
		}
		g.cacheOp("save", func(c *Cache) error { return c.Save(userID, out.Files) })
		return out.Files
	}
	g.log.Warn("fetch files failed", zap.String("userId", userID), zap.Error(err))
	if files := g.cachedFiles(err, func(c *Cache) ([]model.FileItem, error) { return c.Files(userID) }); files != nil {
		storage.SortNewestFirst(files)
		return files
	}
	return []model.FileItem{}
}

// AddFile uploads a new file and returns the stored record, or nil on failure.
func (g *Gateway) AddFile(ctx context.Context, userID string, file NewFile) *model.FileItem {
	body := struct {
		UserID string `json:"userId"`
		NewFile
	}{UserID: userID, NewFile: file}
	var out fileEnvelope
	if err := g.do(ctx, http.MethodPost, "/files", body, &out); err != nil {
		g.log.Warn("add file failed", zap.String("userId", userID), zap.Error(err))
		return nil
	}
	if out.File != nil {
		g.cacheOp("put", func(c *Cache) error { return c.Put(userID, *out.File) })
	}
	return out.File
}

// DeleteFile removes a file and reports success.
func (g *Gateway) DeleteFile(ctx context.Context, userID, id string) bool {
	path := "/files/" + url.PathEscape(id) + "?" + url.Values{"userId": {userID}}.Encode()
	if err := g.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		g.log.Warn("delete file failed", zap.String("fileId", id), zap.Error(err))
		return false
	}
	g.cacheOp("delete", func(c *Cache) error { return c.Delete(userID, id) })
	return true
}

// GetFileByID fetches one file, or nil when it does not exist or cannot be
// fetched and is not cached.
func (g *Gateway) GetFileByID(ctx context.Context, userID, id string) *model.FileItem {
	path := "/files/" + url.PathEscape(id) + "?" + url.Values{"userId": {userID}}.Encode()
	var out fileEnvelope
	err := g.do(ctx, http.MethodGet, path, nil, &out)
	if err == nil {
		return out.File
	}
	g.log.Warn("fetch file failed", zap.String("fileId", id), zap.Error(err))
	if g.cache == nil || !unreachable(err) {
		return nil
	}
	file, cerr := g.cache.Lookup(userID, id)
	if cerr != nil {
		g.log.Warn("cache lookup failed", zap.Error(cerr))
		return nil
	}
	return file
}

// UpdateFile applies a partial update and returns the new record, or nil.
func (g *Gateway) UpdateFile(ctx context.Context, userID, id string, patch model.FilePatch) *model.FileItem {
	body := struct {
		UserID string `json:"userId"`
		model.FilePatch
	}{UserID: userID, FilePatch: patch}
	var out fileEnvelope
	if err := g.do(ctx, http.MethodPut, "/files/"+url.PathEscape(id), body, &out); err != nil {
		g.log.Warn("update file failed", zap.String("fileId", id), zap.Error(err))
		return nil
	}
	if out.File != nil {
		g.cacheOp("put", func(c *Cache) error { return c.Put(userID, *out.File) })
	}
	return out.File
}

// SearchFiles searches name and details. Offline it searches the cache.
func (g *Gateway) SearchFiles(ctx context.Context, userID, query string) []model.FileItem {
	path := "/files/search?" + url.Values{"userId": {userID}, "query": {query}}.Encode()
	var out filesEnvelope
	err := g.do(ctx, http.MethodGet, path, nil, &out)
	if err == nil {
		if out.Files == nil {
			return []model.FileItem{}
		}
		return out.Files
	}
	g.log.Warn("search files failed", zap.String("userId", userID), zap.Error(err))
	if files := g.cachedFiles(err, func(c *Cache) ([]model.FileItem, error) { return c.Search(userID, query) }); files != nil {
		return files
	}
	return []model.FileItem{}
}

// GetStats returns per-type counts. Offline it counts the cache; otherwise a
// failure yields zeroed stats.
func (g *Gateway) GetStats(ctx context.Context, userID string) model.FileStats {
	var out struct {
		Stats model.FileStats `json:"stats"`
	}
	err := g.do(ctx, http.MethodGet, "/files/stats?"+url.Values{"userId": {userID}}.Encode(), nil, &out)
	if err == nil {
		return out.Stats
	}
	g.log.Warn("fetch stats failed", zap.String("userId", userID), zap.Error(err))
	if g.cache != nil && unreachable(err) {
		stats, cerr := g.cache.Stats(userID)
		if cerr == nil {
			return stats
		}
		g.log.Warn("cache stats failed", zap.Error(cerr))
	}
	return model.FileStats{}
}

func (g *Gateway) cachedFiles(err error, read func(*Cache) ([]model.FileItem, error)) []model.FileItem {
	if g.cache == nil || !unreachable(err) {
		return nil
	}
	files, cerr := read(g.cache)
	if cerr != nil {
		g.log.Warn("cache read failed", zap.Error(cerr))
		return nil
	}
	return files
}

func (g *Gateway) cacheOp(op string, fn func(*Cache) error) {
	if g.cache == nil {
		return
	}
	if err := fn(g.cache); err != nil {
		g.log.Warn("cache update failed", zap.String("op", op), zap.Error(err))
	}
}

// unreachable reports whether err means the server could not answer, as
// opposed to answering with a client error. Transport failures (refused
// connection, timeout, DNS) never produce an *APIError, and a 5xx means the
// server is up but its store is not. Only those cases fall back to the cache:
// a 404 or 400 is a real answer and the cached copy may be the stale one.
func unreachable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

// do sends one JSON request. A non-2xx response becomes *APIError carrying
// the server's {"error": ...} message so callers can branch on the status
// with errors.As.
func (g *Gateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := g.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) != nil || e.Error == "" {
			e.Error = "API request failed"
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
