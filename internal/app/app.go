package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/stategrid/internal/config"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	logFile  io.Closer
	registry *registry.Registry
	loader   config.Loader
	config   *Config
}

// NewApp is the constructor for the main application. Results are written
// to outW and log records to logW. It returns a fully initialized App
// instance, including its own isolated logger and registry.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	settings := cfg.Settings
	var extra []io.Writer
	var logFile *os.File
	if settings.Log.File != "" {
		f, err := os.OpenFile(settings.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		extra = append(extra, f)
	}
	logger := newLogger(settings.Log.Level, settings.Log.Format, logW, extra...)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.", "file", settings.Log.File)

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New().Use(modules...)
	logger.Debug("All component modules registered.", "count", len(modules))

	if err := reg.Validate(ctx); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, fmt.Errorf("invalid component registry: %w", err)
	}
	logger.Debug("Registry validation passed.")

	a := &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		loader:   loader,
		config:   cfg,
	}
	if logFile != nil {
		a.logFile = logFile
	}
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}
