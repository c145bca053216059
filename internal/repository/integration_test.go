package repository_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VaultBox/internal/database"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
	"github.com/dharsanguruparan/VaultBox/internal/repository/repotest"
)

// These run against real servers only when the URLs are exported, e.g.
//
//	VAULTBOX_TEST_MONGODB_URI=mongodb://localhost:27017 go test ./internal/repository/
func TestMongoRepositories(t *testing.T) {
	uri := os.Getenv("VAULTBOX_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("VAULTBOX_TEST_MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	name := "vaultbox_test_" + strings.ReplaceAll(time.Now().Format("150405.000000"), ".", "_")
	db, err := database.ConnectMongo(ctx, uri, name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Collection(database.UsersCollection).Database().Drop(context.Background())
		_ = db.Close(context.Background())
	})
	require.NoError(t, db.EnsureIndexes(ctx))

	repotest.RunUserTests(t, repository.NewMongoUserRepository(db))
	repotest.RunFileTests(t, repository.NewMongoFileRepository(db), repotest.Sleep)
}

func TestPostgresRepositories(t *testing.T) {
	dsn := os.Getenv("VAULTBOX_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("VAULTBOX_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.EnsureSchema(ctx, pool))

	repotest.RunUserTests(t, repository.NewPostgresUserRepository(pool))
	repotest.RunFileTests(t, repository.NewPostgresFileRepository(pool), repotest.Sleep)
}
