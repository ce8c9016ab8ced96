// Package common defines shared constants and sentinel errors used across
// dbfiles components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrInvalidName    = errors.New("invalid file name")
	ErrMalformedInput = errors.New("malformed input")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
