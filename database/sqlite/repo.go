// Package sqlite implements the user repository using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mkells/galleria"
)

type repo struct {
	db        *sql.DB
	tableName string
}

func NewRepo(db *sql.DB, tables galleria.Tables) (galleria.UserRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &repo{db: db, tableName: tables.Users}, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (r *repo) Create(ctx context.Context, user galleria.User) (galleria.User, error) {
	user.ID = uuid.New()
	now := time.Now().UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, name, username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		user.ID.String(), user.Name, user.Username, user.PasswordHash, user.Role,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return galleria.User{}, fmt.Errorf("create user %s: %w", user.Username, galleria.ErrConflict)
		}
		return galleria.User{}, fmt.Errorf("create user: %w", err)
	}

	user.CreatedAt = now
	return user, nil
}

func (r *repo) GetByUsername(ctx context.Context, username string) (galleria.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, name, username, password_hash, role, created_at
		FROM %s
		WHERE username = ?`, r.tableName)

	var u galleria.User
	var idStr, createdAt string

	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&idStr, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return galleria.User{}, galleria.ErrNotFound
		}
		return galleria.User{}, fmt.Errorf("get by username: %w", err)
	}

	u.ID, err = uuid.Parse(idStr)
	if err != nil {
		return galleria.User{}, fmt.Errorf("get by username: parse uuid: %w", err)
	}

	u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return galleria.User{}, fmt.Errorf("get by username: parse created_at: %w", err)
	}

	return u, nil
}

func (r *repo) List(ctx context.Context, excludeRole string) ([]galleria.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, name, username, password_hash, role, created_at
		FROM %s
		WHERE ? = '' OR role <> ?
		ORDER BY created_at, username`, r.tableName)

	rows, err := r.db.QueryContext(ctx, query, excludeRole, excludeRole)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]galleria.User, 0)
	for rows.Next() {
		var u galleria.User
		var idStr, createdAt string

		if scanErr := rows.Scan(&idStr, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &createdAt); scanErr != nil {
			return nil, fmt.Errorf("list users: scan: %w", scanErr)
		}

		var parseErr error
		u.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return nil, fmt.Errorf("list users: parse uuid: %w", parseErr)
		}

		u.CreatedAt, parseErr = time.Parse(time.RFC3339Nano, createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("list users: parse created_at: %w", parseErr)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: rows: %w", err)
	}

	return users, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tableName) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete user: %w", galleria.ErrNotFound)
	}

	return nil
}

func (r *repo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET password_hash = ? WHERE id = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, passwordHash, id.String())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("update password: %w", galleria.ErrNotFound)
	}

	return nil
}
