package hcl

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/voxelflow/internal/config"
	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/params"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Attribute names of a step block that are not step parameters.
const (
	attrEnabled = "enabled"
	attrUUID    = "uuid"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
}

type pipelineBlock struct {
	Name  string       `hcl:"name,label"`
	Steps []*stepBlock `hcl:"step,block"`
}

type stepBlock struct {
	Type    string   `hcl:"type,label"`
	Label   string   `hcl:"label,label"`
	Enabled *bool    `hcl:"enabled,optional"`
	UUID    *string  `hcl:"uuid,optional"`
	Params  hcl.Body `hcl:",remain"`
}

// evalContext is shared by every parameter expression.
var evalContext = &hcl.EvalContext{
	Functions: map[string]function.Function{
		"upper":  stdlib.UpperFunc,
		"lower":  stdlib.LowerFunc,
		"format": stdlib.FormatFunc,
		"join":   stdlib.JoinFunc,
		"concat": stdlib.ConcatFunc,
		"min":    stdlib.MinFunc,
		"max":    stdlib.MaxFunc,
		"abs":    stdlib.AbsoluteFunc,
		"floor":  stdlib.FloorFunc,
		"ceil":   stdlib.CeilFunc,
	},
}

// Load parses a single HCL file holding exactly one pipeline block.
func (l *Loader) Load(ctx context.Context, path string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	if len(root.Pipelines) != 1 {
		return nil, fmt.Errorf("HCL file %s: expected exactly one pipeline block, found %d", path, len(root.Pipelines))
	}

	pb := root.Pipelines[0]
	out := &config.Pipeline{Name: pb.Name, Source: path}
	for _, sb := range pb.Steps {
		s, err := translateStep(sb)
		if err != nil {
			return nil, fmt.Errorf("HCL file %s: %w", path, err)
		}
		out.Steps = append(out.Steps, s)
	}

	logger.Debug("HCL loading complete.", "pipeline", out.Name, "steps", len(out.Steps))
	return out, nil
}

// translateStep converts a decoded step block into the agnostic model.
func translateStep(sb *stepBlock) (*config.Step, error) {
	s := config.NewStep(sb.Type, sb.Label)
	if sb.Enabled != nil {
		s.Enabled = *sb.Enabled
	}
	if sb.UUID != nil {
		id, err := uuid.Parse(*sb.UUID)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid uuid: %w", sb.Label, err)
		}
		s.UUID = id
	}

	attrs, diags := sb.Params.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("step %q: %w", sb.Label, diags)
	}
	s.Params = make(params.Values, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(evalContext)
		if diags.HasErrors() {
			return nil, fmt.Errorf("step %q: %w", sb.Label, diags)
		}
		s.Params[name] = v
	}
	return s, nil
}
