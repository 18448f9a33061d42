package service

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown username and a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserAlreadyExists is returned when the username or email is taken.
	ErrUserAlreadyExists = errors.New("username or email already exists")
	// ErrExpenseNotFound covers both a missing expense and one owned by another user.
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrExportDisabled is returned when no export bucket is configured.
	ErrExportDisabled = errors.New("export storage is not configured")
)

// ValidationError reports missing or malformed input. Its message is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
