package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"pdf-viewer-plus/internal/domain"
	"pdf-viewer-plus/internal/repository"
	"pdf-viewer-plus/internal/service"
	"pdf-viewer-plus/internal/tui"
	"pdf-viewer-plus/pkg/logger"
)

const renderCacheSize = 64

func main() {
	presetPath := flag.String("preset", "", "TOML preset with a [viewer] table")
	statePath := flag.String("state", defaultStatePath(), "file where view states are kept between runs")
	logPath := flag.String("log", "", "write debug logs to this file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file.pdf>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	// Set up logging
	var appLogger domain.Logger = logger.Nop{}
	if *logPath != "" {
		logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Could not open log file: %v", err)
		}
		defer logFile.Close()
		appLogger = logger.NewLoggerWithOutput("debug", logFile)
	}

	preset := tui.DefaultPreset()
	if *presetPath != "" {
		p, err := tui.LoadPreset(*presetPath)
		if err != nil {
			log.Fatalf("Error loading preset: %v", err)
		}
		preset = p
	}
	opts, err := preset.ViewerOptions()
	if err != nil {
		log.Fatalf("Invalid preset: %v", err)
	}
	if opts.Key == "" {
		// A key derived from the absolute path resumes the file where it was left.
		if abs, err := filepath.Abs(flag.Arg(0)); err == nil {
			opts.Key = uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
		}
	}

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Wiring
	cache, err := service.NewRenderCache(renderCacheSize)
	if err != nil {
		log.Fatalf("Error creating render cache: %v", err)
	}
	engine := service.NewFitzEngine(cache, appLogger)
	loader := service.NewDocumentLoader(engine, "", 0, appLogger)
	repo := repository.NewTOMLViewStateRepository(*statePath)
	surfaces := service.NewSurfaceService(loader, engine, repo, domain.RenderingUnwrap, appLogger)

	snap, err := surfaces.Open(ctx, domain.DocumentSource{Path: flag.Arg(0)}, opts)
	if err != nil {
		log.Fatalf("Error opening %s: %v", flag.Arg(0), err)
	}

	// Run the UI
	p := tea.NewProgram(tui.NewModel(ctx, surfaces, snap, preset.Step()), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	if err := surfaces.SaveAll(context.Background()); err != nil {
		appLogger.Error("Failed to save view state", err)
	}
	if runErr != nil {
		fmt.Printf("Error running program: %v\n", runErr)
		os.Exit(1)
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pdf-viewer-state.toml"
	}
	return filepath.Join(dir, "pdf-viewer-plus", "state.toml")
}
