package config

import (
	"fmt"

	"pdf-viewer-plus/internal/domain"
	"pdf-viewer-plus/internal/infra/supabase"
	"pdf-viewer-plus/internal/repository"
	"pdf-viewer-plus/internal/service"
	"pdf-viewer-plus/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config              domain.Config
	Logger              domain.Logger
	SupabaseClient      domain.SupabaseClient
	ViewStateRepository domain.ViewStateRepository
	RenderCache         *service.RenderCache
	PageEngine          domain.PageEngine
	DocumentLoader      *service.DocumentLoader
	SurfaceService      *service.SurfaceService
	AuthService         domain.AuthService
}

// NewContainer creates a new dependency injection container from the
// environment. The configuration is validated before anything is wired.
func NewContainer() (*Container, error) {
	config := NewConfig()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return NewContainerWithConfig(config, logger.NewLogger(config.GetLogLevel()))
}

// NewContainerWithConfig wires the application around an existing config
func NewContainerWithConfig(config domain.Config, appLogger domain.Logger) (*Container, error) {
	c := &Container{
		Config: config,
		Logger: appLogger,
	}

	// Supabase is optional: without it view states live in memory and auth is off.
	if config.GetSupabaseURL() != "" {
		client := supabase.NewSupabaseClient(config, appLogger)
		if err := client.Initialize(); err != nil {
			return nil, err
		}
		c.SupabaseClient = client
		c.ViewStateRepository = repository.NewSupabaseViewStateRepository(client, appLogger)
		c.AuthService = service.NewAuthService(client, appLogger)
	} else {
		appLogger.Warn("SUPABASE_URL not set, view states are kept in memory")
		c.ViewStateRepository = repository.NewMemoryViewStateRepository()
	}

	cache, err := service.NewRenderCache(config.GetRenderCacheSize())
	if err != nil {
		return nil, err
	}
	c.RenderCache = cache
	c.PageEngine = service.NewFitzEngine(cache, appLogger)
	c.DocumentLoader = service.NewDocumentLoader(c.PageEngine, config.GetDocumentRoot(), config.GetMaxFileSize(), appLogger)
	c.SurfaceService = service.NewSurfaceService(
		c.DocumentLoader,
		c.PageEngine,
		c.ViewStateRepository,
		config.GetDefaultRendering(),
		appLogger,
	)

	return c, nil
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}
