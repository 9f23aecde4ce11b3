package domain

import "context"

// PageEngine is the external engine that understands the PDF format.
type PageEngine interface {
	PageCount(content []byte) (int, error)
	RenderPage(doc *Document, page int, zoomPercent int) ([]byte, error)
	PageText(doc *Document, page int) (string, error)
}

// ViewStateRepository persists surface state by instance key.
type ViewStateRepository interface {
	Get(ctx context.Context, instanceKey string) (*SavedViewState, error)
	Save(ctx context.Context, state *SavedViewState) error
	Delete(ctx context.Context, instanceKey string) error
	// List returns saved states, most recently updated first.
	List(ctx context.Context) ([]*SavedViewState, error)
}

// SurfaceService hosts keyed viewer surfaces.
type SurfaceService interface {
	Open(ctx context.Context, source DocumentSource, opts ViewerOptions) (*SurfaceSnapshot, error)
	Get(ctx context.Context, key string) (*SurfaceSnapshot, error)
	List(ctx context.Context) ([]*SurfaceSnapshot, error)
	Close(ctx context.Context, key string) error

	GoToPage(ctx context.Context, key string, page int) (*SurfaceSnapshot, error)
	GoToPageInput(ctx context.Context, key string, input string) (*SurfaceSnapshot, error)
	NextPage(ctx context.Context, key string) (*SurfaceSnapshot, error)
	PreviousPage(ctx context.Context, key string) (*SurfaceSnapshot, error)

	SetZoom(ctx context.Context, key string, percent int) (*SurfaceSnapshot, error)
	ZoomIn(ctx context.Context, key string, step int) (*SurfaceSnapshot, error)
	ZoomOut(ctx context.Context, key string, step int) (*SurfaceSnapshot, error)
	ResetZoom(ctx context.Context, key string) (*SurfaceSnapshot, error)

	Resize(ctx context.Context, key string, width, height *Dimension) (*SurfaceSnapshot, error)
	Scroll(ctx context.Context, key string, fraction float64) (*SurfaceSnapshot, error)

	RenderPage(ctx context.Context, key string) ([]byte, error)
	PageText(ctx context.Context, key string) (*PageText, error)

	SavedStates(ctx context.Context) ([]*SavedViewState, error)
}

// AuthService validates bearer tokens for the HTTP API.
type AuthService interface {
	ValidateToken(token string) (*SupabaseUser, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetMaxFileSize() int64
	GetDocumentRoot() string
	GetDefaultRendering() RenderingMode
	GetRenderCacheSize() int
	GetAllowedOrigins() []string
	GetAuthRequired() bool
	GetSupabaseURL() string
	GetSupabaseKey() string
}
