package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkells/galleria"
)

func createUsersTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexUsername := pgx.Identifier{fmt.Sprintf("idx_%s_username", tableName)}.Sanitize()

	// The unique index on username is load-bearing: it is what turns two
	// concurrent creates of the same username into exactly one winner.
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS %s
		ON %s (username);
	`,
		quotedTable,
		indexUsername, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables galleria.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := createUsersTable(ctx, pool, tables.Users); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Users, err)
	}

	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables galleria.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	quotedTable := pgx.Identifier{tables.Users}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("drop table %s: %w", tables.Users, err)
	}

	return nil
}
