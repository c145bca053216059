package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/VaultBox/internal/model"
)

const fileColumns = `id, user_id, name, type, size, content, details, created_at, updated_at`

// PostgresFileRepository wraps the SQL for the files table.
type PostgresFileRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresFileRepository constructs a repository.
func NewPostgresFileRepository(pool *pgxpool.Pool) *PostgresFileRepository {
	return &PostgresFileRepository{pool: pool}
}

// CreateFile inserts a file record with fresh timestamps.
func (r *PostgresFileRepository) CreateFile(ctx context.Context, file *model.FileItem) (*model.FileItem, error) {
	now := time.Now().UTC()
	stored := *file
	stored.CreatedAt = now
	stored.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO files (`+fileColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, stored.ID, stored.UserID, stored.Name, stored.Type, stored.Size, stored.Content, stored.Details, stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}
	return &stored, nil
}

// GetFilesByUserID lists the owner's files, newest first.
func (r *PostgresFileRepository) GetFilesByUserID(ctx context.Context, userID string) ([]model.FileItem, error) {
	return r.query(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
}

// GetFileByID returns the file only when it belongs to userID.
func (r *PostgresFileRepository) GetFileByID(ctx context.Context, id, userID string) (*model.FileItem, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+fileColumns+` FROM files WHERE id=$1 AND user_id=$2
	`, id, userID)
	return scanFile(row)
}

// UpdateFile merges the patch into the owner's file. Nil patch fields are
// sent as SQL NULL, and COALESCE then keeps the current column value, so one
// statement covers every combination of fields without building SQL by hand.
// Owner and created_at are never in the SET list, and the user_id filter
// makes a foreign id look exactly like a missing one.
func (r *PostgresFileRepository) UpdateFile(ctx context.Context, id, userID string, patch model.FilePatch) (*model.FileItem, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE files
		SET name = COALESCE($3, name),
			type = COALESCE($4, type),
			size = COALESCE($5, size),
			content = COALESCE($6, content),
			details = COALESCE($7, details),
			updated_at = $8
		WHERE id=$1 AND user_id=$2
		RETURNING `+fileColumns,
		id, userID, patch.Name, patch.Type, patch.Size, patch.Content, patch.Details, time.Now().UTC())
	return scanFile(row)
}

// DeleteFile hard-deletes the owner's file and reports whether one was removed.
func (r *PostgresFileRepository) DeleteFile(ctx context.Context, id, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete file: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SearchFiles matches query literally and case-insensitively against name or
// details. strpos avoids LIKE wildcard escaping.
func (r *PostgresFileRepository) SearchFiles(ctx context.Context, userID, query string) ([]model.FileItem, error) {
	return r.query(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE user_id=$1
			AND (strpos(lower(name), lower($2)) > 0 OR strpos(lower(details), lower($2)) > 0)
		ORDER BY created_at DESC
	`, userID, query)
}

// GetFileStats groups the owner's files by type.
func (r *PostgresFileRepository) GetFileStats(ctx context.Context, userID string) (model.FileStats, error) {
	var stats model.FileStats
	rows, err := r.pool.Query(ctx, `SELECT type, COUNT(*) FROM files WHERE user_id=$1 GROUP BY type`, userID)
	if err != nil {
		return stats, fmt.Errorf("select stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t     model.FileType
			count int64
		)
		if err := rows.Scan(&t, &count); err != nil {
			return stats, fmt.Errorf("scan stats: %w", err)
		}
		stats.Add(t, count)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

func (r *PostgresFileRepository) query(ctx context.Context, sql string, args ...any) ([]model.FileItem, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select files: %w", err)
	}
	defer rows.Close()
	files := []model.FileItem{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

func scanFile(row pgx.Row) (*model.FileItem, error) {
	var f model.FileItem
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Type, &f.Size, &f.Content, &f.Details, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return &f, nil
}
