package errors

// ErrorCode is a machine-readable error identifier returned by the API
type ErrorCode string

const (
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrBadRequest    ErrorCode = "BAD_REQUEST"
	ErrValidation    ErrorCode = "VALIDATION_ERROR"
	ErrConflict      ErrorCode = "CONFLICT"
	ErrUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	ErrUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
)
