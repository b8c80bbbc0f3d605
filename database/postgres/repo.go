// Package postgres implements the user repository on PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkells/galleria"
)

// uniqueViolation is the PostgreSQL error code for a unique-index conflict.
const uniqueViolation = "23505"

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables galleria.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.Users}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Create(ctx context.Context, user galleria.User) (galleria.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, username, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, r.tableName)

	user.ID = uuid.New()
	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Username, user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return galleria.User{}, fmt.Errorf("create user %s: %w", user.Username, galleria.ErrConflict)
		}
		return galleria.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (galleria.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, username, password_hash, role, created_at
		FROM %s
		WHERE username = $1
	`, r.tableName)

	var u galleria.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return galleria.User{}, galleria.ErrNotFound
		}
		return galleria.User{}, fmt.Errorf("get by username: %w", err)
	}

	return u, nil
}

func (r *Repo) List(ctx context.Context, excludeRole string) ([]galleria.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, username, password_hash, role, created_at
		FROM %s
		WHERE $1 = '' OR role <> $1
		ORDER BY created_at, username
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, excludeRole)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]galleria.User, 0)
	for rows.Next() {
		var u galleria.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("list users: scan: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: rows: %w", err)
	}

	return users, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tableName)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete user: %w", galleria.ErrNotFound)
	}

	return nil
}

func (r *Repo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET password_hash = $1 WHERE id = $2`, r.tableName)

	result, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update password: %w", galleria.ErrNotFound)
	}

	return nil
}
