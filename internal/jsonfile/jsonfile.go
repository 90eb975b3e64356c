package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/jsonc"
	"github.com/vk/voxelflow/internal/config"
	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Keys of the file layout.
const (
	BuilderGroup  = "PipelineBuilder"
	KeyName       = "Name"
	KeyNumFilters = "Number_Filters"
	KeyVersion    = "Version"
	KeyFilterName = "Filter_Name"
	KeyFilterUUID = "Filter_Uuid"
	KeyHumanLabel = "Filter_Human_Label"
	KeyEnabled    = "Filter_Enabled"

	reservedPrefix = "Filter_"
)

// FormatVersion is written into the builder group.
const FormatVersion = "1"

type builderGroup struct {
	Name       string `json:"Name"`
	NumFilters int    `json:"Number_Filters"`
	Version    string `json:"Version,omitempty"`
}

// Loader is the JSON implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads a JSONC pipeline file from disk.
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
	ctxlog.FromContext(ctx).Debug("JSON pipeline loaded.", "path", path, "pipeline", p.Name, "steps", len(p.Steps))
	return p, nil
}

// Parse strips comments and trailing commas from data and decodes the
// pipeline it holds.
func Parse(data []byte) (*config.Pipeline, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &root); err != nil {
		return nil, fmt.Errorf("parsing pipeline: %w", err)
	}

	rawGroup, ok := root[BuilderGroup]
	if !ok {
		return nil, fmt.Errorf("the %q object was not found in the pipeline file", BuilderGroup)
	}
	var group builderGroup
	if err := json.Unmarshal(rawGroup, &group); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", BuilderGroup, err)
	}
	if group.NumFilters < 0 {
		return nil, fmt.Errorf("%s.%s is negative", BuilderGroup, KeyNumFilters)
	}

	p := &config.Pipeline{Name: group.Name}
	for i := 0; i < group.NumFilters; i++ {
		key := strconv.Itoa(i)
		raw, ok := root[key]
		if !ok {
			return nil, fmt.Errorf("filter %d of %d is missing", i, group.NumFilters)
		}
		s, err := parseStep(raw)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		p.Steps = append(p.Steps, s)
	}
	return p, nil
}

func parseStep(raw json.RawMessage) (*config.Step, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	s := config.NewStep("", "")
	for key, val := range obj {
		switch key {
		case KeyFilterName:
			if err := json.Unmarshal(val, &s.Type); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		case KeyHumanLabel:
			if err := json.Unmarshal(val, &s.Label); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		case KeyEnabled:
			if err := json.Unmarshal(val, &s.Enabled); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		case KeyFilterUUID:
			var text string
			if err := json.Unmarshal(val, &text); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			id, err := uuid.Parse(text)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			s.UUID = id
		default:
			if strings.HasPrefix(key, reservedPrefix) {
				continue
			}
			v, err := decodeValue(val)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", key, err)
			}
			s.Params[key] = v
		}
	}
	if s.Type == "" && s.UUID == uuid.Nil {
		return nil, fmt.Errorf("neither %s nor %s is set", KeyFilterName, KeyFilterUUID)
	}
	return s, nil
}

func decodeValue(raw json.RawMessage) (cty.Value, error) {
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(raw, ty)
}

// Writer is the JSON implementation of config.Writer.
type Writer struct{}

var _ config.Writer = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{}
}

func (Writer) Write(_ context.Context, w io.Writer, p *config.Pipeline) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal renders p in the pipeline builder layout.
func Marshal(p *config.Pipeline) ([]byte, error) {
	root := map[string]any{
		BuilderGroup: builderGroup{Name: p.Name, NumFilters: len(p.Steps), Version: FormatVersion},
	}
	for i, s := range p.Steps {
		obj := map[string]any{
			KeyFilterName: s.Type,
			KeyHumanLabel: s.Label,
			KeyEnabled:    s.Enabled,
		}
		if s.UUID != uuid.Nil {
			obj[KeyFilterUUID] = "{" + s.UUID.String() + "}"
		}
		for _, name := range s.Params.Names() {
			if strings.HasPrefix(name, reservedPrefix) {
				return nil, fmt.Errorf("step %q: parameter name %q uses the reserved prefix %s", s.Label, name, reservedPrefix)
			}
			v := s.Params.Value(name)
			if v == cty.NilVal {
				continue
			}
			raw, err := ctyjson.Marshal(v, v.Type())
			if err != nil {
				return nil, fmt.Errorf("step %q: parameter %q: %w", s.Label, name, err)
			}
			obj[name] = json.RawMessage(raw)
		}
		root[strconv.Itoa(i)] = obj
	}
	data, err := json.MarshalIndent(root, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write saves p to path.
func Write(ctx context.Context, path string, p *config.Pipeline) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("JSON pipeline written.", "path", path, "steps", len(p.Steps))
	return nil
}
