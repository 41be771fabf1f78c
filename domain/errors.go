package domain

import "errors"

var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingToken       = errors.New("missing or invalid token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")

	// Authorization errors
	ErrForbidden = errors.New("unauthorized access")

	// Input validation errors
	ErrValidation = errors.New("validation failed")

	// External service errors
	ErrEmbedding   = errors.New("embedding service failed")
	ErrVectorStore = errors.New("vector store failed")
)

// ValidationError reports a request that is missing or has malformed fields.
// It matches [ErrValidation] with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid returns a [ValidationError] with the given client-facing message.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}
