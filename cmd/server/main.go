package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-viewer-plus/internal/config"
	"pdf-viewer-plus/internal/handler"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	cfg := container.Config

	// Handlers
	surfaceHandler := handler.NewSurfaceHandler(
		container.SurfaceService,
		container.Logger,
		cfg.GetMaxFileSize(),
		cfg.GetDocumentRoot() != "",
	)

	authMiddleware := handler.PassThrough
	if cfg.GetAuthRequired() {
		authMiddleware = handler.NewAuthMiddleware(container.AuthService, container.Logger).Middleware
	}

	// Router
	router := handler.NewRouter(
		surfaceHandler,
		handler.NewAuthHandler(container.Logger),
		authMiddleware,
		handler.RequestLogger(container.Logger),
		cfg.GetAllowedOrigins(),
	)

	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr, "auth_required", cfg.GetAuthRequired())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Server shutdown failed", err)
	}
	if err := container.SurfaceService.SaveAll(ctx); err != nil {
		container.Logger.Error("Failed to save view states", err)
	}

	container.Logger.Info("Server exited")
}
