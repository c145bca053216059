package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/VaultBox/internal/api"
	"github.com/dharsanguruparan/VaultBox/internal/config"
	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/observability"
	"github.com/dharsanguruparan/VaultBox/internal/signing"
	"github.com/dharsanguruparan/VaultBox/internal/storage"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg, err := config.Parse(env.Options{Environment: map[string]string{
		"VAULTBOX_STORE":      "memory",
		"VAULTBOX_JWT_SECRET": "test-secret",
	}})
	require.NoError(t, err)
	store := storage.NewMemoryStore()
	signer := signing.NewSigner(cfg.SigningSecret, cfg.TokenTTL)
	srv := httptest.NewServer(api.New(cfg, store, store, signer, zap.NewNop(), observability.NewMetrics()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func register(t *testing.T, gw *Gateway, email string) *model.User {
	t.Helper()
	user, err := gw.Register(context.Background(), RegisterData{
		Name: "Ada", Email: email, Phone: "555-0100", Password: "s3cret!",
	})
	require.NoError(t, err)
	return user
}

func TestGatewayAccountFlow(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	gw := New(srv.URL + "/api/")

	user := register(t, gw, "ada@example.com")
	assert.NotEmpty(t, gw.Token())

	_, err := gw.Register(ctx, RegisterData{Name: "A", Email: "ada@example.com", Phone: "1", Password: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "User with this email already exists", apiErr.Message)

	fresh := New(srv.URL + "/api")
	_, err = fresh.Login(ctx, "ada@example.com", "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	loggedIn, err := fresh.Login(ctx, "ada@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	updated, err := fresh.UpdateUser(ctx, user.ID, UserUpdate{Phone: "555-0199"})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, "Ada", updated.Name)

	got, err := gw.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0199", got.Phone)

	other := New(srv.URL+"/api", WithToken(gw.Token()))
	bob := register(t, New(srv.URL+"/api"), "bob@example.com")
	_, err = other.GetUser(ctx, bob.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestGatewayFiles(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	gw := New(srv.URL+"/api", WithCache(cache))
	user := register(t, gw, "ada@example.com")

	assert.Equal(t, []model.FileItem{}, gw.GetFiles(ctx, user.ID))

	note := gw.AddFile(ctx, user.ID, NewFile{Name: "Q1 report.txt", Type: model.TypeText, Size: 5, Content: "hello"})
	require.NotNil(t, note)
	pic := gw.AddFile(ctx, user.ID, NewFile{Name: "pic.png", Type: model.TypeImage, Size: 3, Content: "data:image/png;base64,AAAA", Details: "holiday"})
	require.NotNil(t, pic)

	assert.Nil(t, gw.AddFile(ctx, user.ID, NewFile{Name: "bad", Type: "audio", Content: "x"}))

	files := gw.GetFiles(ctx, user.ID)
	assert.Len(t, files, 2)

	got := gw.GetFileByID(ctx, user.ID, note.ID)
	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Content)
	assert.Nil(t, gw.GetFileByID(ctx, user.ID, "missing"))

	name := "Q2 report.txt"
	updated := gw.UpdateFile(ctx, user.ID, note.ID, model.FilePatch{Name: &name})
	require.NotNil(t, updated)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "hello", updated.Content)

	found := gw.SearchFiles(ctx, user.ID, "REPORT")
	require.Len(t, found, 1)
	assert.Equal(t, note.ID, found[0].ID)

	assert.Equal(t, model.FileStats{Image: 1, Text: 1, Total: 2}, gw.GetStats(ctx, user.ID))

	assert.True(t, gw.DeleteFile(ctx, user.ID, pic.ID))
	assert.False(t, gw.DeleteFile(ctx, user.ID, pic.ID))

	cached, err := cache.Files(user.ID)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, name, cached[0].Name)
}

func TestGatewayFallsBackToCacheWhenOffline(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	gw := New(srv.URL+"/api", WithCache(cache))
	user := register(t, gw, "ada@example.com")

	note := gw.AddFile(ctx, user.ID, NewFile{Name: "todo.txt", Type: model.TypeText, Size: 4, Content: "milk", Details: "groceries"})
	require.NotNil(t, note)
	require.Len(t, gw.GetFiles(ctx, user.ID), 1)

	srv.Close()

	files := gw.GetFiles(ctx, user.ID)
	require.Len(t, files, 1)
	assert.Equal(t, note.ID, files[0].ID)

	got := gw.GetFileByID(ctx, user.ID, note.ID)
	require.NotNil(t, got)
	assert.Equal(t, "milk", got.Content)

	assert.Len(t, gw.SearchFiles(ctx, user.ID, "grocer"), 1)
	assert.Equal(t, model.FileStats{Text: 1, Total: 1}, gw.GetStats(ctx, user.ID))

	assert.Nil(t, gw.AddFile(ctx, user.ID, NewFile{Name: "x", Type: model.TypeText, Content: "x"}))
	assert.False(t, gw.DeleteFile(ctx, user.ID, note.ID))
	assert.Nil(t, gw.UpdateFile(ctx, user.ID, note.ID, model.FilePatch{}))

	_, err = gw.GetUser(ctx, user.ID)
	assert.Error(t, err)
}

func TestGatewayWithoutCacheReturnsDefaults(t *testing.T) {
	srv := startServer(t)
	srv.Close()
	ctx := context.Background()
	gw := New(srv.URL + "/api")

	assert.Equal(t, []model.FileItem{}, gw.GetFiles(ctx, "u1"))
	assert.Equal(t, []model.FileItem{}, gw.SearchFiles(ctx, "u1", "x"))
	assert.Nil(t, gw.GetFileByID(ctx, "u1", "f1"))
	assert.Equal(t, model.FileStats{}, gw.GetStats(ctx, "u1"))
}

func TestGatewayIgnoresCacheOnClientErrors(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cache.Save("u1", []model.FileItem{{ID: "f1", UserID: "u1", Name: "stale", Type: model.TypeText}}))
	gw := New(srv.URL+"/api", WithCache(cache))

	assert.Nil(t, gw.GetFileByID(ctx, "u1", "f1"))
	assert.Equal(t, []model.FileItem{}, gw.SearchFiles(ctx, "u1", ""))
}
