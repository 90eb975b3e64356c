package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/vk/voxelflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. Defaults come from the VOXELFLOW_*
// environment and flags override them. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	env, err := app.LoadEnvironment()
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	flagSet := pflag.NewFlagSet("voxelflow", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
voxelflow - runs filter pipelines over typed voxel data.

Usage:
  voxelflow [options] PIPELINE_FILE

Arguments:
  PIPELINE_FILE
    Pipeline in HCL (.hcl), JSON with comments (.json, .jsonc) or YAML
    (.yaml, .yml). The pipeline is validated, then executed.

Options:
`)
		flagSet.PrintDefaults()
		fmt.Fprintf(output, "\nEvery option marked (env) can also be set through %s_<NAME>.\n", app.EnvPrefix)
	}

	logLevel := flagSet.String("log-level", env.LogLevel, "Logging level: debug, info, warn or error. (env)")
	logFormat := flagSet.String("log-format", env.LogFormat, "Log output format: text or json. (env)")
	workers := flagSet.IntP("workers", "w", env.Workers, "Parallelism inside compute steps. 0 uses every CPU. (env)")
	healthPort := flagSet.Int("healthcheck-port", env.HealthcheckPort, "Port for the /health and /metrics server. 0 is disabled. (env)")
	progressURL := flagSet.String("progress-url", env.ProgressURL, "socket.io endpoint receiving pipeline progress. (env)")
	snapshotOut := flagSet.String("snapshot-out", "", "Write the collection to this snapshot file after a successful run.")
	compression := flagSet.String("snapshot-compression", env.SnapshotCompression, "Snapshot compression: none, lz4 or zstd. (env)")
	exportPath := flagSet.String("export", "", "Write the pipeline as built to this file; the format follows the extension.")
	validateOnly := flagSet.Bool("validate-only", false, "Validate the pipeline without executing it.")
	listSteps := flagSet.Bool("list-steps", false, "Print the registered step types and exit.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%v", err)
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() > 1 {
		return nil, false, usageError("expected a single pipeline file, got %d arguments", flagSet.NArg())
	}
	path := flagSet.Arg(0)
	if path == "" && !*listSteps {
		slog.Debug("No pipeline file provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	format := strings.ToLower(*logFormat)
	if format != "text" && format != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	level := strings.ToLower(*logLevel)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PipelinePath:        path,
		ExportPath:          *exportPath,
		SnapshotOut:         *snapshotOut,
		SnapshotCompression: *compression,
		ProgressURL:         *progressURL,
		LogFormat:           format,
		LogLevel:            level,
		HealthcheckPort:     *healthPort,
		WorkerCount:         *workers,
		ValidateOnly:        *validateOnly,
		ListSteps:           *listSteps,
	})
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
