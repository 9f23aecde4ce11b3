package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured. authMiddleware
// wraps every /api/v1 route; pass a pass-through when auth is disabled.
func NewRouter(
	surfaceHandler *SurfaceHandler,
	authHandler *AuthHandler,
	authMiddleware func(http.Handler) http.Handler,
	requestLogger func(http.Handler) http.Handler,
	allowedOrigins []string,
) http.Handler {
	router := mux.NewRouter()
	router.Use(requestLogger)

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"pdf-viewer-plus"}`))
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware)

	// Surface routes
	api.HandleFunc("/surfaces", surfaceHandler.OpenSurface).Methods("POST")
	api.HandleFunc("/surfaces", surfaceHandler.ListSurfaces).Methods("GET")
	api.HandleFunc("/surfaces/{key}", surfaceHandler.GetSurface).Methods("GET")
	api.HandleFunc("/surfaces/{key}", surfaceHandler.CloseSurface).Methods("DELETE")

	// Navigation
	api.HandleFunc("/surfaces/{key}/page", surfaceHandler.SetPage).Methods("PUT")
	api.HandleFunc("/surfaces/{key}/page/next", surfaceHandler.NextPage).Methods("POST")
	api.HandleFunc("/surfaces/{key}/page/previous", surfaceHandler.PreviousPage).Methods("POST")

	// Zoom
	api.HandleFunc("/surfaces/{key}/zoom", surfaceHandler.SetZoom).Methods("PUT")
	api.HandleFunc("/surfaces/{key}/zoom/in", surfaceHandler.ZoomIn).Methods("POST")
	api.HandleFunc("/surfaces/{key}/zoom/out", surfaceHandler.ZoomOut).Methods("POST")
	api.HandleFunc("/surfaces/{key}/zoom/reset", surfaceHandler.ResetZoom).Methods("POST")

	// Layout and output
	api.HandleFunc("/surfaces/{key}/size", surfaceHandler.Resize).Methods("PUT")
	api.HandleFunc("/surfaces/{key}/scroll", surfaceHandler.Scroll).Methods("PUT")
	api.HandleFunc("/surfaces/{key}/render", surfaceHandler.RenderPage).Methods("GET")
	api.HandleFunc("/surfaces/{key}/text", surfaceHandler.PageText).Methods("GET")

	api.HandleFunc("/view-states", surfaceHandler.ListSavedStates).Methods("GET")

	// Auth routes
	api.HandleFunc("/me", authHandler.GetProfile).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"Link",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}

// PassThrough is the middleware used when authentication is disabled.
func PassThrough(next http.Handler) http.Handler {
	return next
}
