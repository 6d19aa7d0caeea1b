// Package common defines shared constants and sentinel errors used across
// the eatsauth server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Account errors. These are expected business outcomes.
	ErrDuplicateEmail     = errors.New("there is an account with that email already")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("wrong password")
	ErrValidation         = errors.New("validation error")

	// Verification errors.
	ErrCodeNotFound = errors.New("verification not found")

	// Unexpected failures. Details are logged where they occur, callers only
	// see the sentinel.
	ErrHashingFailure     = errors.New("hashing failure")
	ErrPersistenceFailure = errors.New("persistence failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
