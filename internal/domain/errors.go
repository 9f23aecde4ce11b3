package domain

import "errors"

// Domain errors
var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrInvalidDimension     = errors.New("invalid dimension")
	ErrInvalidFile          = errors.New("invalid file")
	ErrSurfaceNotFound      = errors.New("surface not found")
	ErrViewStateNotFound    = errors.New("view state not found")
	ErrRenderingUnavailable = errors.New("rendering unavailable")
	ErrInvalidToken         = errors.New("invalid token")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
