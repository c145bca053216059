package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/VaultBox/internal/model"
)

const (
	userColumns     = `id, name, email, phone, password_hash, created_at, updated_at`
	uniqueViolation = "23505"
)

// PostgresUserRepository wraps the SQL for the users table.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository constructs a repository.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// CreateUser inserts a new user with fresh timestamps.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	stored := *user
	stored.CreatedAt = now
	stored.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, stored.ID, stored.Name, stored.Email, stored.Phone, stored.PasswordHash, stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &stored, nil
}

// FindUserByEmail looks a user up by exact email.
func (r *PostgresUserRepository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

// FindUserByID looks a user up by id.
func (r *PostgresUserRepository) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// UpdateUser merges the patch and returns the updated user.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			password_hash = COALESCE($5, password_hash),
			updated_at = $6
		WHERE id=$1
		RETURNING `+userColumns,
		id, patch.Name, patch.Email, patch.Phone, patch.PasswordHash, time.Now().UTC())
	user, err := scanUser(row)
	if err != nil && isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	return user, err
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
