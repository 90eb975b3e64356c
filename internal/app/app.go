package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"text/tabwriter"

	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/metrics"
	"github.com/vk/voxelflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry and
// metrics. Without modules the core modules are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.RegisterModules(modules...)
	logger.Debug("All step modules registered.", "modules", len(modules), "steps", reg.Len())

	// A registration that cannot round-trip its own defaults is a programming
	// error, so we panic.
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		metrics:  metrics.New(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the collectors fed by every run.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// printSteps writes one line per registered step type.
func (a *App) printSteps() error {
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tGROUP\tUUID\tDESCRIPTION")
	for _, typeName := range a.registry.Types() {
		reg, _ := a.registry.Lookup(typeName)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", reg.Type, reg.Group, reg.UUID, reg.Description)
	}
	return tw.Flush()
}
