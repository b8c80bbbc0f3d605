package galleria

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// StorageObject is one entry returned by a bucket listing. Key is the full
// object key, including any folder prefix.
type StorageObject struct {
	Key  string
	Size int64
}

// ImageDescriptor is the public view of one stored image inside a folder.
type ImageDescriptor struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RemoveFailure reports one object that a bulk remove could not delete.
type RemoveFailure struct {
	Path    string
	Message string
}

// User is a row in the users table. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser carries the fields required to create a user.
type NewUser struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

var (
	validFolderNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	validImageNameRegex  = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// IsValidFolderName reports whether name is an acceptable folder segment.
func IsValidFolderName(name string) bool {
	return validFolderNameRegex.MatchString(name)
}

// IsValidImageName reports whether name is an acceptable object name inside
// a folder. Dots are allowed for file extensions.
func IsValidImageName(name string) bool {
	return validImageNameRegex.MatchString(name)
}

// Tables holds configurable table names for user storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Users string `mapstructure:"users"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Users == "" {
		return errors.New("validate tables: users table name cannot be empty")
	}

	if !IsValidTableName(t.Users) {
		return fmt.Errorf("validate tables: invalid users table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Users)
	}

	return nil
}
