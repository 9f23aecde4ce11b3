package handler

import (
	"net/http"

	"pdf-viewer-plus/internal/domain"
)

// AuthHandler reports who the bearer token belongs to
type AuthHandler struct {
	logger domain.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(logger domain.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// GetProfile returns the current user's profile information. Without the auth
// middleware there is no user and the call fails with 401.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	h.logger.Debug("Profile requested", "user_id", user.ID)
	writeJSON(w, http.StatusOK, user)
}
