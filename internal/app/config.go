package app

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/vk/voxelflow/internal/snapshot"
)

// EnvPrefix is the prefix of every environment variable read by
// LoadEnvironment.
const EnvPrefix = "VOXELFLOW"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string
	// ExportPath receives the pipeline as built, in the format matching its
	// extension. Empty disables the export.
	ExportPath string
	// SnapshotOut receives the collection after a successful commit.
	SnapshotOut         string
	SnapshotCompression string
	ProgressURL         string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
	ValidateOnly    bool
	ListSteps       bool
}

// Environment holds the settings read from VOXELFLOW_* variables. Command
// line flags take precedence over them.
type Environment struct {
	LogLevel            string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat           string `envconfig:"LOG_FORMAT" default:"text"`
	Workers             int    `envconfig:"WORKERS" default:"0"`
	HealthcheckPort     int    `envconfig:"HEALTHCHECK_PORT" default:"0"`
	ProgressURL         string `envconfig:"PROGRESS_URL"`
	SnapshotCompression string `envconfig:"SNAPSHOT_COMPRESSION" default:"zstd"`
}

// LoadEnvironment reads the VOXELFLOW_* variables.
func LoadEnvironment() (*Environment, error) {
	var env Environment
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &env, nil
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" && !cfg.ListSteps {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.PipelinePath != "" {
		if _, err := formatOf(cfg.PipelinePath); err != nil {
			return nil, err
		}
	}
	if cfg.ExportPath != "" {
		if _, err := formatOf(cfg.ExportPath); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	if _, err := snapshot.ParseCompression(cfg.SnapshotCompression); err != nil {
		return nil, err
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("worker count must not be negative, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
