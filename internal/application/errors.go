package application

import "errors"

var (
	// ErrAPIKeyNotConfigured is returned when the caller has no stored
	// registry API key.
	ErrAPIKeyNotConfigured = errors.New("registry API key not configured")

	// ErrEmptyAPIKey is returned when saving a blank API key.
	ErrEmptyAPIKey = errors.New("api key must not be empty")

	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)
