package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pdf-viewer-plus/internal/domain"
	apperrors "pdf-viewer-plus/pkg/errors"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

var errEmptyBody = errors.New("request body is empty")

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.SupabaseUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.SupabaseUser)
	return user, ok
}

// GetTokenFromContext extracts the authentication token from request context
func GetTokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeAppError maps a service error to its HTTP status. Server-side failures
// are logged, client errors are not.
func writeAppError(w http.ResponseWriter, logger domain.Logger, err error) {
	appErr := apperrors.FromDomain(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error(appErr.Message, err)
	}

	message := appErr.Message
	if appErr.Details != "" {
		message += ": " + appErr.Details
	}
	writeError(w, appErr.StatusCode, message)
}

// decodeJSON decodes a request body, rejecting unknown fields. An empty body
// returns errEmptyBody so callers can treat it as optional.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		if errors.Is(err, domain.ErrInvalidDimension) {
			return err
		}
		return &domain.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}
