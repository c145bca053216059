// Package repository defines the persistence contracts for users and files and
// their MongoDB and Postgres implementations.
package repository

import (
	"context"
	"errors"

	"github.com/dharsanguruparan/VaultBox/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the lookup, including
	// owner mismatches on file records.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository stores user accounts. There is no delete.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
}

// FileRepository stores file records. Every lookup is scoped by owner.
type FileRepository interface {
	CreateFile(ctx context.Context, file *model.FileItem) (*model.FileItem, error)
	GetFilesByUserID(ctx context.Context, userID string) ([]model.FileItem, error)
	GetFileByID(ctx context.Context, id, userID string) (*model.FileItem, error)
	UpdateFile(ctx context.Context, id, userID string, patch model.FilePatch) (*model.FileItem, error)
	DeleteFile(ctx context.Context, id, userID string) (bool, error)
	SearchFiles(ctx context.Context, userID, query string) ([]model.FileItem, error)
	GetFileStats(ctx context.Context, userID string) (model.FileStats, error)
}
