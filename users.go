package galleria

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepo defines the interface for user persistence.
//
// Username uniqueness is the repository's responsibility: implementations
// enforce it with a database-level unique index and surface a violation as
// ErrConflict. The service never does a read-before-insert check, so two
// concurrent creates with the same username race only inside the database,
// where exactly one wins.
type UserRepo interface {
	// Create inserts a new user and returns the stored row with its
	// generated ID and creation time. Returns ErrConflict when the username
	// is already taken.
	Create(ctx context.Context, user User) (User, error)

	// GetByUsername returns the user with the given username, or ErrNotFound.
	GetByUsername(ctx context.Context, username string) (User, error)

	// List returns all users except those carrying excludeRole, in creation
	// order. Pass "" to list everyone.
	List(ctx context.Context, excludeRole string) ([]User, error)

	// Delete removes the user with the given id, or returns ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdatePassword replaces the stored password hash for the given id.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// bcryptCost matches the work factor the rest of the deployment's hashes
// were created with, so old and new rows verify interchangeably.
const bcryptCost = 10

// RoleAdmin is excluded from user listings.
const RoleAdmin = "admin"

// UserService implements user CRUD and credential checks over a UserRepo.
// Passwords are stored only as bcrypt hashes.
type UserService struct {
	repo        UserRepo
	callTimeout time.Duration
}

// UserConfig holds configuration options for UserService.
type UserConfig struct {
	CallTimeout time.Duration // Deadline per repository call (default: 15s)
}

func NewUserService(repo UserRepo, cfg UserConfig) (*UserService, error) {
	if repo == nil {
		return nil, errors.New("new user service: repo is required")
	}

	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}

	return &UserService{repo: repo, callTimeout: callTimeout}, nil
}

func (s *UserService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

// AddUser creates a user with a hashed password. All fields are required.
// A duplicate username surfaces as ErrConflict from the repository's unique
// index; there is no application-level existence check.
func (s *UserService) AddUser(ctx context.Context, nu NewUser) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, fmt.Errorf("add user: %w", err)
	}

	if nu.Name == "" || nu.Username == "" || nu.Password == "" || nu.Role == "" {
		return User{}, fmt.Errorf("add user: %w: name, username, password and role are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("add user: hash password: %w", err)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	user, err := s.repo.Create(cctx, User{
		Name:         nu.Name,
		Username:     nu.Username,
		PasswordHash: string(hash),
		Role:         nu.Role,
	})
	if err != nil {
		return User{}, classify("add user "+nu.Username, err)
	}

	return user, nil
}

// Authenticate verifies a username/password pair and returns the user's
// role. An unknown username and a wrong password produce the same
// ErrUnauthorized, so the error gives away nothing about which usernames
// exist.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	if username == "" || password == "" {
		return "", fmt.Errorf("authenticate: %w: username and password are required", ErrInvalidInput)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	user, err := s.repo.GetByUsername(cctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("authenticate: %w", ErrUnauthorized)
		}
		return "", classify("authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("authenticate: %w", ErrUnauthorized)
	}

	return user.Role, nil
}

// ListUsers returns all non-admin users.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	users, err := s.repo.List(cctx, RoleAdmin)
	if err != nil {
		return nil, classify("list users", err)
	}

	return users, nil
}

// DeleteUser removes a user by id, or returns ErrNotFound.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	if err := s.repo.Delete(cctx, id); err != nil {
		return classify("delete user "+id.String(), err)
	}

	return nil
}

// ChangePassword verifies the current password before replacing the stored
// hash. Unknown username is ErrNotFound; a failed verification of the old
// password is ErrUnauthorized.
func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if username == "" || oldPassword == "" || newPassword == "" {
		return fmt.Errorf("change password: %w: username, old password and new password are required", ErrInvalidInput)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	user, err := s.repo.GetByUsername(cctx, username)
	if err != nil {
		return classify("change password", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("change password: %w: incorrect old password", ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("change password: hash password: %w", err)
	}

	uctx, ucancel := s.callCtx(ctx)
	defer ucancel()

	if err := s.repo.UpdatePassword(uctx, user.ID, string(hash)); err != nil {
		return classify("change password", err)
	}

	return nil
}
