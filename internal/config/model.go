package config

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/voxelflow/internal/params"
)

// Pipeline is the unified representation of a pipeline file.
type Pipeline struct {
	Name  string
	Steps []*Step
	// Source is the file the pipeline was read from, if any.
	Source string
}

// Step is one entry of a pipeline file.
type Step struct {
	// Type is the registered step type. It may be empty when UUID is set.
	Type    string
	UUID    uuid.UUID
	Label   string
	Enabled bool
	Params  params.Values
}

// NewStep returns an enabled step with no parameters.
func NewStep(typeName, label string) *Step {
	return &Step{Type: typeName, Label: label, Enabled: true, Params: params.Values{}}
}

// Loader reads a pipeline file into the format-agnostic model.
type Loader interface {
	Load(ctx context.Context, path string) (*Pipeline, error)
}

// Writer serializes the model into a specific file format.
type Writer interface {
	Write(ctx context.Context, w io.Writer, p *Pipeline) error
}

// NameFromPath derives a pipeline name from a file path by stripping the
// directory and the extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
