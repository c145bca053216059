// Package app builds the persistence layer selected by configuration and owns
// its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/VaultBox/internal/api"
	"github.com/dharsanguruparan/VaultBox/internal/config"
	"github.com/dharsanguruparan/VaultBox/internal/database"
	"github.com/dharsanguruparan/VaultBox/internal/observability"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
	"github.com/dharsanguruparan/VaultBox/internal/s3storage"
	"github.com/dharsanguruparan/VaultBox/internal/signing"
	"github.com/dharsanguruparan/VaultBox/internal/storage"
)

// Stores holds the repositories plus the handles that must be closed.
type Stores struct {
	Users repository.UserRepository
	Files repository.FileRepository

	closers []func(context.Context) error
}

// Open connects the configured backend and, when enabled, the blob store.
// Schema and indexes are ensured on every start.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stores, error) {
	stores := &Stores{}
	switch cfg.Store {
	case config.StoreMemory:
		mem := storage.NewMemoryStore()
		stores.Users, stores.Files = mem, mem
	case config.StoreMongo:
		db, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, db.Close)
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = stores.Close(ctx)
			return nil, err
		}
		stores.Users = repository.NewMongoUserRepository(db)
		stores.Files = repository.NewMongoFileRepository(db)
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		if err := database.EnsureSchema(ctx, pool); err != nil {
			_ = stores.Close(ctx)
			return nil, err
		}
		stores.Users = repository.NewPostgresUserRepository(pool)
		stores.Files = repository.NewPostgresFileRepository(pool)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	log.Info("store ready", zap.String("store", cfg.Store))

	if cfg.BlobsEnabled {
		blobs, err := s3storage.New(cfg.S3)
		if err != nil {
			_ = stores.Close(ctx)
			return nil, err
		}
		if err := blobs.EnsureBucket(ctx); err != nil {
			_ = stores.Close(ctx)
			return nil, err
		}
		stores.Files = repository.NewBlobFiles(stores.Files, blobs)
		log.Info("blob offload enabled", zap.String("bucket", cfg.S3.Bucket))
	}
	return stores, nil
}

// Migrate ensures indexes or schema for the configured backend without
// keeping the connection.
func Migrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.Store {
	case config.StoreMongo:
		db, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
		return db.EnsureIndexes(ctx)
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		return database.EnsureSchema(ctx, pool)
	case config.StoreMemory:
		return nil
	}
	return fmt.Errorf("unknown store %q", cfg.Store)
}

// Close releases every handle opened by Open.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Serve opens the stores and runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	stores, err := Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stores.Close(closeCtx); err != nil {
			log.Warn("close stores", zap.Error(err))
		}
	}()
	signer := signing.NewSigner(cfg.SigningSecret, cfg.TokenTTL)
	return api.New(cfg, stores.Users, stores.Files, signer, log, observability.NewMetrics()).Run(ctx)
}
