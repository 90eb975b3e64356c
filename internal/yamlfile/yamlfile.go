package yamlfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/vk/voxelflow/internal/config"
	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/params"
	"gopkg.in/yaml.v3"
)

type fileRoot struct {
	Name  string     `yaml:"name"`
	Steps []stepNode `yaml:"steps"`
}

type stepNode struct {
	Type    string     `yaml:"type,omitempty"`
	UUID    string     `yaml:"uuid,omitempty"`
	Label   string     `yaml:"label,omitempty"`
	Enabled *bool      `yaml:"enabled,omitempty"`
	Params  *yaml.Node `yaml:"params,omitempty"`
}

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(ctx context.Context, path string) (*config.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Source = path
	if p.Name == "" {
		p.Name = config.NameFromPath(path)
	}
	ctxlog.FromContext(ctx).Debug("YAML pipeline loaded.", "path", path, "pipeline", p.Name, "steps", len(p.Steps))
	return p, nil
}

// Parse decodes a YAML pipeline document.
func Parse(data []byte) (*config.Pipeline, error) {
	var root fileRoot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	p := &config.Pipeline{Name: root.Name}
	for i, sn := range root.Steps {
		s := config.NewStep(sn.Type, sn.Label)
		if sn.Enabled != nil {
			s.Enabled = *sn.Enabled
		}
		if sn.UUID != "" {
			id, err := uuid.Parse(sn.UUID)
			if err != nil {
				return nil, fmt.Errorf("step %d: invalid uuid: %w", i, err)
			}
			s.UUID = id
		}
		if s.Type == "" && s.UUID == uuid.Nil {
			return nil, fmt.Errorf("step %d: type or uuid is required", i)
		}
		if sn.Params != nil {
			if sn.Params.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("step %d: params must be a mapping", i)
			}
			obj, err := nodeToCty(sn.Params)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			if s.Params, err = params.FromObject(obj); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		}
		p.Steps = append(p.Steps, s)
	}
	return p, nil
}

// Writer is the YAML implementation of config.Writer.
type Writer struct{}

var _ config.Writer = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{}
}

func (Writer) Write(_ context.Context, w io.Writer, p *config.Pipeline) error {
	root := fileRoot{Name: p.Name}
	for _, s := range p.Steps {
		sn := stepNode{Type: s.Type, Label: s.Label}
		if !s.Enabled {
			disabled := false
			sn.Enabled = &disabled
		}
		if s.UUID != uuid.Nil {
			sn.UUID = s.UUID.String()
		}
		if len(s.Params) > 0 {
			node, err := ctyToNode(s.Params.Object())
			if err != nil {
				return fmt.Errorf("step %q: %w", s.Label, err)
			}
			sn.Params = node
		}
		root.Steps = append(root.Steps, sn)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}
