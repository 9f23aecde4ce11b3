package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"pdf-viewer-plus/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort       string               `validate:"required,numeric"`
	LogLevel         string               `validate:"oneof=debug info warn warning error"`
	MaxFileSize      int64                `validate:"min=1"`
	DocumentRoot     string               `validate:"omitempty,dir"`
	DefaultRendering domain.RenderingMode `validate:"oneof=legacy_embed unwrap"`
	RenderCacheSize  int                  `validate:"min=1,max=4096"`
	AllowedOrigins   []string             `validate:"dive,required"`
	AuthRequired     bool
	SupabaseURL      string `validate:"omitempty,url"`
	SupabaseKey      string `validate:"required_with=SupabaseURL"`
}

// NewConfig creates a new configuration instance with default values
func NewConfig() *AppConfig {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:       getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:         strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		MaxFileSize:      getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		DocumentRoot:     getEnvOrDefault("DOCUMENT_ROOT", ""),
		DefaultRendering: domain.RenderingMode(getEnvOrDefault("DEFAULT_RENDERING", string(domain.RenderingUnwrap))),
		RenderCacheSize:  int(getEnvInt64OrDefault("RENDER_CACHE_SIZE", 128)),
		AllowedOrigins: getEnvListOrDefault("ALLOWED_ORIGINS", []string{
			"http://localhost:8501", // Streamlit default port
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		AuthRequired: getEnvBoolOrDefault("AUTH_REQUIRED", false),
		SupabaseURL:  getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:  getEnvOrDefault("SUPABASE_ANON_KEY", ""),
	}
}

// Validate checks the loaded values
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.AuthRequired && c.SupabaseURL == "" {
		return &domain.ValidationError{Field: "SUPABASE_URL", Message: "required when AUTH_REQUIRED is true"}
	}
	return nil
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetMaxFileSize returns the maximum allowed document size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetDocumentRoot returns the directory path sources are resolved against.
// Empty disables path sources over HTTP.
func (c *AppConfig) GetDocumentRoot() string {
	return c.DocumentRoot
}

// GetDefaultRendering returns the rendering mode used when options omit it
func (c *AppConfig) GetDefaultRendering() domain.RenderingMode {
	return c.DefaultRendering
}

// GetRenderCacheSize returns the number of rendered pages kept in memory
func (c *AppConfig) GetRenderCacheSize() int {
	return c.RenderCacheSize
}

// GetAllowedOrigins returns the CORS origins
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetAuthRequired reports whether API calls need a bearer token
func (c *AppConfig) GetAuthRequired() bool {
	return c.AuthRequired
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
