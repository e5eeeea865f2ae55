package apperr

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotConfigured marks a benign absence of user configuration
	// (no definitions, no decay weights, no gauge thresholds).
	ErrNotConfigured = errors.New("not configured")
)
