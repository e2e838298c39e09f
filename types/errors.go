package types

import "errors"

var (
	// ErrConfiguration is returned when required startup configuration is
	// missing or invalid. It is fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection is returned when the store cannot be reached at startup.
	// It is fatal.
	ErrConnection = errors.New("connection error")

	// ErrValidation marks request input that failed validation.
	ErrValidation = errors.New("validation error")

	// ErrAlertNotFound is returned by stores when the referenced alert does
	// not exist.
	ErrAlertNotFound = errors.New("alert not found")
)
