package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/voxelflow/internal/broadcast"
	"github.com/vk/voxelflow/internal/builder"
	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/pipeline"
	"github.com/vk/voxelflow/internal/snapshot"
	"github.com/vk/voxelflow/internal/step"
)

// ErrCancelled is returned by Run when the commit phase was interrupted.
var ErrCancelled = errors.New("pipeline cancelled")

// Run loads the configured pipeline, validates it and, unless ValidateOnly is
// set, commits it against a fresh collection.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.ListSteps {
		return a.printSteps()
	}

	a.startHealthcheckServer()
	defer a.closeHealthcheckServer(ctx)

	observers := []step.Observer{logObserver(a.logger), a.metrics}
	if a.config.ProgressURL != "" {
		b, err := broadcast.Dial(ctx, broadcast.Options{URL: a.config.ProgressURL})
		if err != nil {
			return fmt.Errorf("failed to connect progress broadcaster: %w", err)
		}
		defer b.Close()
		observers = append(observers, b)
	}

	p, err := a.buildPipeline(ctx, observers)
	if err != nil {
		return err
	}
	if a.config.ExportPath != "" {
		if err := a.export(ctx, p); err != nil {
			return err
		}
	}

	stop := cancelOnInterrupt(ctx, a.logger, p)
	defer stop()

	coll := datacontainer.New()
	a.logger.Info("🔎 Validating pipeline...", "pipeline", p.Name(), "steps", p.Len())
	res := p.ValidateAll(ctx, coll)
	fmt.Fprint(a.outW, res.Report())
	if !res.Ok() {
		return fmt.Errorf("validation failed at step %d (%s): %w", res.FailedIndex+1, res.FailedLabel, res.Err)
	}
	if a.config.ValidateOnly {
		a.logger.Info("Validation passed, commit skipped.")
		return nil
	}

	a.logger.Info("🚀 Executing pipeline...", "workers", a.config.WorkerCount)
	res = p.CommitAll(ctx, coll)
	fmt.Fprint(a.outW, res.Report())
	switch {
	case res.State == pipeline.Cancelled:
		return ErrCancelled
	case !res.Ok():
		return fmt.Errorf("execution failed at step %d (%s): %w", res.FailedIndex+1, res.FailedLabel, res.Err)
	}
	a.logger.Info("🏁 Execution finished.", "duration", res.Duration)

	if a.config.SnapshotOut != "" {
		c, err := snapshot.ParseCompression(a.config.SnapshotCompression)
		if err != nil {
			return err
		}
		opts := snapshot.Options{Compression: c, Workers: a.config.WorkerCount}
		if err := snapshot.WriteFile(ctx, a.config.SnapshotOut, coll, opts); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		a.logger.Info("Snapshot written.", "file", a.config.SnapshotOut, "compression", c)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) buildPipeline(ctx context.Context, observers []step.Observer) (*pipeline.Pipeline, error) {
	loader, err := loaderFor(a.config.PipelinePath)
	if err != nil {
		return nil, err
	}
	cfg, err := loader.Load(ctx, a.config.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	a.logger.Debug("Pipeline file loaded.", "path", a.config.PipelinePath, "steps", len(cfg.Steps))

	opts := []pipeline.Option{pipeline.WithWorkers(a.config.WorkerCount)}
	for _, o := range observers {
		opts = append(opts, pipeline.WithObserver(o))
	}

	p, err := builder.Build(ctx, a.registry, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return p, nil
}

// export writes the pipeline as built back to a file.
func (a *App) export(ctx context.Context, p *pipeline.Pipeline) error {
	w, err := writerFor(a.config.ExportPath)
	if err != nil {
		return err
	}
	cfg, err := builder.Describe(a.registry, p)
	if err != nil {
		return fmt.Errorf("failed to describe pipeline: %w", err)
	}
	f, err := os.Create(a.config.ExportPath)
	if err != nil {
		return fmt.Errorf("failed to export pipeline: %w", err)
	}
	defer f.Close()
	if err := w.Write(ctx, f, cfg); err != nil {
		return fmt.Errorf("failed to export pipeline: %w", err)
	}
	a.logger.Info("Pipeline exported.", "file", a.config.ExportPath)
	return f.Close()
}

// logObserver forwards pipeline messages to the logger.
func logObserver(logger *slog.Logger) step.Observer {
	return step.ObserverFunc(func(m step.Message) {
		switch m.Kind {
		case step.ErrorMessage:
			logger.Error(m.String(), "code", m.Code, "path", m.Path)
		case step.WarningMessage:
			logger.Warn(m.String(), "code", m.Code, "path", m.Path)
		case step.ProgressMessage:
			logger.Debug(m.String())
		default:
			logger.Info(m.String())
		}
	})
}

// cancelOnInterrupt requests cancellation of p on SIGINT or SIGTERM. The
// returned function stops listening.
func cancelOnInterrupt(ctx context.Context, logger *slog.Logger, p *pipeline.Pipeline) func() {
	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCtx.Done():
			if ctx.Err() == nil {
				logger.Warn("Interrupt received, cancelling pipeline.")
			}
			p.Cancel()
		case <-done:
		}
	}()
	return func() {
		close(done)
		stopSignals()
	}
}
