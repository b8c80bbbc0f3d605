package galleria

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when credential verification fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when a uniqueness constraint is violated
	ErrConflict = errors.New("conflict")
	// ErrTimeout is returned when an upstream call exceeds its deadline
	ErrTimeout = errors.New("upstream timeout")
	// ErrUpstream is returned when a storage or database call fails
	ErrUpstream = errors.New("upstream failure")
)
