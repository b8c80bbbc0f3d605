package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkells/galleria"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

func Migrate(ctx context.Context, db *sql.DB, tables galleria.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := createUsersTable(ctx, db, tables.Users); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Users, err)
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables galleria.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tables.Users))
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Users, err)
	}

	return nil
}

func createUsersTable(ctx context.Context, db *sql.DB, tableName string) error {
	quotedTable := quoteIdentifier(tableName)
	indexUsername := quoteIdentifier(fmt.Sprintf("idx_%s_username", tableName))

	// Username uniqueness lives here, not in application code.
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`, quotedTable)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	indexSQL := fmt.Sprintf(`
		CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (username)
	`, indexUsername, quotedTable)

	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("create index username: %w", err)
	}

	return nil
}
