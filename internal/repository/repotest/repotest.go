// Package repotest holds behaviour tests shared by every repository backend.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
)

// Advance moves the backend's clock forward so records created afterwards
// sort strictly newer. Database backends pass a short sleep.
type Advance func()

// Sleep is an Advance for backends stamped by the wall clock.
func Sleep() { time.Sleep(5 * time.Millisecond) }

// RunUserTests exercises a UserRepository. users must be empty or at least
// free of the emails generated here.
func RunUserTests(t *testing.T, users repository.UserRepository) {
	ctx := context.Background()

	t.Run("CreateAndFind", func(t *testing.T) {
		u := newUser()
		created, err := users.CreateUser(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, u.ID, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		byEmail, err := users.FindUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, u.PasswordHash, byEmail.PasswordHash)

		byID, err := users.FindUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := users.FindUserByEmail(ctx, "nobody-"+uuid.NewString()+"@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = users.FindUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, repository.ErrNotFound)
		name := "x"
		_, err = users.UpdateUser(ctx, uuid.NewString(), model.UserPatch{Name: &name})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		u := newUser()
		_, err := users.CreateUser(ctx, u)
		require.NoError(t, err)

		again := newUser()
		again.Email = u.Email
		_, err = users.CreateUser(ctx, again)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("Update", func(t *testing.T) {
		u := newUser()
		created, err := users.CreateUser(ctx, u)
		require.NoError(t, err)

		phone := "555-0199"
		updated, err := users.UpdateUser(ctx, u.ID, model.UserPatch{Phone: &phone})
		require.NoError(t, err)
		assert.Equal(t, phone, updated.Phone)
		assert.Equal(t, u.Name, updated.Name)
		assert.Equal(t, u.Email, updated.Email)
		assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond)

		other := newUser()
		_, err = users.CreateUser(ctx, other)
		require.NoError(t, err)
		_, err = users.UpdateUser(ctx, u.ID, model.UserPatch{Email: &other.Email})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})
}

// RunFileTests exercises a FileRepository.
func RunFileTests(t *testing.T, files repository.FileRepository, advance Advance) {
	ctx := context.Background()

	create := func(t *testing.T, owner, name string, ft model.FileType, details string) *model.FileItem {
		t.Helper()
		f, err := files.CreateFile(ctx, &model.FileItem{
			ID:      uuid.NewString(),
			UserID:  owner,
			Name:    name,
			Type:    ft,
			Size:    int64(len(name)),
			Content: "content of " + name,
			Details: details,
		})
		require.NoError(t, err)
		advance()
		return f
	}

	t.Run("OwnerScoping", func(t *testing.T) {
		owner, other := uuid.NewString(), uuid.NewString()
		f := create(t, owner, "a.txt", model.TypeText, "")

		got, err := files.GetFileByID(ctx, f.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, "content of a.txt", got.Content)

		_, err = files.GetFileByID(ctx, f.ID, other)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		name := "stolen"
		_, err = files.UpdateFile(ctx, f.ID, other, model.FilePatch{Name: &name})
		assert.ErrorIs(t, err, repository.ErrNotFound)

		removed, err := files.DeleteFile(ctx, f.ID, other)
		require.NoError(t, err)
		assert.False(t, removed)

		list, err := files.GetFilesByUserID(ctx, other)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		owner := uuid.NewString()
		first := create(t, owner, "first", model.TypeText, "")
		second := create(t, owner, "second", model.TypeImage, "")
		third := create(t, owner, "third", model.TypePDF, "")

		list, err := files.GetFilesByUserID(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(list))
	})

	t.Run("Search", func(t *testing.T) {
		ownerA, ownerB := uuid.NewString(), uuid.NewString()
		q1 := create(t, ownerA, "Q1 Report.pdf", model.TypePDF, "")
		notes := create(t, ownerA, "report-notes.txt", model.TypeText, "")
		create(t, ownerB, "Report Card", model.TypeText, "")
		create(t, ownerA, "holiday.jpg", model.TypeImage, "beach")
		tagged := create(t, ownerA, "scan.jpg", model.TypeImage, "expense REPORT")

		got, err := files.SearchFiles(ctx, ownerA, "report")
		require.NoError(t, err)
		assert.Equal(t, []string{tagged.ID, notes.ID, q1.ID}, ids(got))

		got, err = files.SearchFiles(ctx, ownerA, "q1 rep")
		require.NoError(t, err)
		assert.Equal(t, []string{q1.ID}, ids(got))

		got, err = files.SearchFiles(ctx, ownerA, ".*")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Stats", func(t *testing.T) {
		owner := uuid.NewString()
		for _, ft := range []model.FileType{
			model.TypeImage, model.TypeImage, model.TypePDF,
			model.TypeText, model.TypeText, model.TypeText,
		} {
			create(t, owner, "f", ft, "")
		}
		create(t, uuid.NewString(), "other", model.TypeVideo, "")

		stats, err := files.GetFileStats(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, model.FileStats{Image: 2, PDF: 1, Video: 0, Text: 3, Total: 6}, stats)

		empty, err := files.GetFileStats(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Equal(t, model.FileStats{}, empty)
	})

	t.Run("DeleteTwice", func(t *testing.T) {
		owner := uuid.NewString()
		f := create(t, owner, "gone.txt", model.TypeText, "")

		removed, err := files.DeleteFile(ctx, f.ID, owner)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = files.DeleteFile(ctx, f.ID, owner)
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = files.GetFileByID(ctx, f.ID, owner)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("UpdateKeepsOwnerAndCreation", func(t *testing.T) {
		owner := uuid.NewString()
		f := create(t, owner, "draft.txt", model.TypeText, "v1")

		name := "final.txt"
		updated, err := files.UpdateFile(ctx, f.ID, owner, model.FilePatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "final.txt", updated.Name)
		assert.Equal(t, "v1", updated.Details)
		assert.Equal(t, f.Content, updated.Content)
		assert.Equal(t, owner, updated.UserID)
		assert.WithinDuration(t, f.CreatedAt, updated.CreatedAt, time.Millisecond)
		assert.True(t, updated.UpdatedAt.After(f.UpdatedAt))
	})
}

func newUser() *model.User {
	id := uuid.NewString()
	return &model.User{
		ID:           id,
		Name:         "User " + id[:8],
		Email:        id + "@example.com",
		Phone:        "555-0100",
		PasswordHash: "$2a$10$not-a-real-hash",
	}
}

func ids(files []model.FileItem) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.ID)
	}
	return out
}
