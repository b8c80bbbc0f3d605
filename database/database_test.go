package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkells/galleria"
	"github.com/mkells/galleria/database"
)

func TestConnect_UnsupportedType(t *testing.T) {
	_, _, err := database.Connect(context.Background(), database.Config{
		Type:   "oracle",
		DSN:    "whatever",
		Tables: galleria.Tables{Users: "users"},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "galleria.db")

	repo, cleanup, err := database.Connect(ctx, database.Config{
		Type:   "sqlite",
		DSN:    dsn,
		Tables: galleria.Tables{Users: "users"},
	})
	require.NoError(t, err)
	defer cleanup()

	created, err := repo.Create(ctx, galleria.User{
		Name:         "Mira",
		Username:     "mira",
		PasswordHash: "hash",
		Role:         "editor",
	})
	require.NoError(t, err)

	got, err := repo.GetByUsername(ctx, "mira")
	assert.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestConnect_SQLite_InvalidTableName(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "galleria.db")

	_, _, err := database.Connect(ctx, database.Config{
		Type:   "sqlite",
		DSN:    dsn,
		Tables: galleria.Tables{Users: "users; DROP TABLE users"},
	})
	assert.Error(t, err)
}
