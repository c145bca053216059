package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, "mongodb://localhost:27017/personal-data-storage", cfg.Mongo.URI)
	assert.Equal(t, "personal-data-storage", cfg.Mongo.Database)
	assert.Equal(t, int64(64<<20), cfg.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.RequireAuth)
	assert.False(t, cfg.BlobsEnabled)
	assert.Len(t, cfg.SigningSecret, 32)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{
		"VAULTBOX_ADDRESS":       ":9999",
		"VAULTBOX_STORE":         " Postgres ",
		"VAULTBOX_CORS_ORIGINS":  "http://a.test,http://b.test",
		"VAULTBOX_JWT_SECRET":    "s3cret",
		"VAULTBOX_TOKEN_TTL":     "1h",
		"VAULTBOX_REQUIRE_AUTH":  "true",
		"VAULTBOX_BLOBS_ENABLED": "true",
		"MONGODB_URI":            "mongodb://db:27017",
		"DATABASE_URL":           "postgres://x@y/z",
		"S3_ENDPOINT":            "minio:9000",
		"S3_BUCKET":              "content",
	}})
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Address)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, []byte("s3cret"), cfg.SigningSecret)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.RequireAuth)
	assert.True(t, cfg.BlobsEnabled)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "postgres://x@y/z", cfg.Postgres.DSN)
	assert.Equal(t, "minio:9000", cfg.S3.Endpoint)
	assert.Equal(t, "content", cfg.S3.Bucket)
}

func TestParseRejectsUnknownStore(t *testing.T) {
	_, err := Parse(env.Options{Environment: map[string]string{"VAULTBOX_STORE": "redis"}})
	require.Error(t, err)
}

func TestParseFixesNonPositiveValues(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{
		"VAULTBOX_MAX_BODY_BYTES": "0",
		"VAULTBOX_TOKEN_TTL":      "-1s",
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(defaultMaxBodyBytes), cfg.MaxBodyBytes)
	assert.Equal(t, defaultTokenTTL, cfg.TokenTTL)
}
