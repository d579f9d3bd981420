package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/decl"
	"github.com/vk/calcgrid/internal/executor"
)

// Config holds everything an App instance needs to run.
type Config struct {
	// DeclPath is the file or directory holding .hcl declarations.
	DeclPath string
	// Sets are `computer.input=json` assignments committed as one frame
	// after initialization.
	Sets []string
	// Event is an optional `computer.event` to apply after the sets.
	Event string
	// Payload is the event's JSON payload, if any.
	Payload string
	// LogFormat is "text" or "json".
	LogFormat string
	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string
	// LogW receives log output; defaults to the app's output writer.
	LogW io.Writer
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	exec   *executor.Executor
	model  *decl.Model
}

// New constructs a fully wired App: logger, loaded declarations, and an
// executor with every computer registered and every connection bound. The
// executor is not yet initialized; Run does that.
func New(ctx context.Context, outW io.Writer, cfg *Config, loader *decl.Loader) (*App, error) {
	logW := cfg.LogW
	if logW == nil {
		logW = outW
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.DeclPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load declarations: %w", err)
	}
	logger.Debug("Declarations loaded.", "computers", len(model.Computers), "connections", len(model.Connections))

	exec := executor.New()
	for _, spec := range model.Computers {
		if err := exec.AddComputer(spec, "", nil); err != nil {
			return nil, fmt.Errorf("failed to register computer %q: %w", spec.Name, err)
		}
	}
	for _, conn := range model.Connections {
		if err := exec.Connect(conn.Source, conn.Target); err != nil {
			return nil, fmt.Errorf("failed to connect %s -> %s: %w", conn.Source, conn.Target, err)
		}
	}
	logger.Debug("Executor populated.", "computers", len(model.Computers))

	return &App{
		outW:   outW,
		logger: logger,
		exec:   exec,
		model:  model,
	}, nil
}

// Executor returns the app's executor. This is primarily for testing.
func (a *App) Executor() *executor.Executor {
	return a.exec
}
