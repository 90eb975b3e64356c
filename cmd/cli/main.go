package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/voxelflow/internal/app"
	"github.com/vk/voxelflow/internal/cli"
	"github.com/vk/voxelflow/internal/registry"
)

// main is the entrypoint for the voxelflow application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, app.ErrCancelled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// run parses args and runs the application. Without modules the core step
// modules are registered.
func run(outW io.Writer, args []string, modules ...registry.Module) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Registration problems panic inside NewApp; report them as an error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	voxelApp := app.NewApp(outW, appConfig, modules...)
	return voxelApp.Run(context.Background())
}
