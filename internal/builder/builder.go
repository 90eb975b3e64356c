package builder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/voxelflow/internal/config"
	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/pipeline"
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/internal/step"
)

// Build instantiates every step of cfg through reg, in file order.
func Build(ctx context.Context, reg *registry.Registry, cfg *config.Pipeline, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	p := pipeline.New(cfg.Name, opts...)

	for i, sc := range cfg.Steps {
		s, err := buildStep(reg, sc)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, describe(sc), err)
		}
		if _, ok := s.(*Unknown); ok {
			logger.Warn("Unknown step type, inserting placeholder.", "index", i, "type", sc.Type, "uuid", sc.UUID)
		}
		if err := p.PushBack(s); err != nil {
			return nil, err
		}
	}

	logger.Debug("Pipeline built.", "pipeline", cfg.Name, "steps", p.Len())
	return p, nil
}

func buildStep(reg *registry.Registry, sc *config.Step) (step.Step, error) {
	var s step.Step
	if r, ok := resolve(reg, sc); ok {
		s = r.New()
	} else {
		s = NewUnknown(sc.Type, sc.UUID)
	}

	values := sc.Params
	if values == nil {
		values = params.Values{}
	}
	if err := s.ReadParameters(values); err != nil {
		return nil, err
	}

	switch _, unknown := s.(*Unknown); {
	case sc.Label != "":
		s.SetLabel(sc.Label)
	case !unknown:
		s.SetLabel(s.Type())
	}
	s.SetEnabled(sc.Enabled)
	return s, nil
}

func resolve(reg *registry.Registry, sc *config.Step) (*registry.Registration, bool) {
	if sc.Type != "" {
		if r, ok := reg.Lookup(sc.Type); ok {
			return r, true
		}
	}
	if sc.UUID != uuid.Nil {
		return reg.LookupUUID(sc.UUID)
	}
	return nil, false
}

func describe(sc *config.Step) string {
	if sc.Label != "" {
		return sc.Label
	}
	if sc.Type != "" {
		return sc.Type
	}
	return sc.UUID.String()
}

// Describe converts a live pipeline back into the file model using each
// step's current parameters.
func Describe(reg *registry.Registry, p *pipeline.Pipeline) (*config.Pipeline, error) {
	out := &config.Pipeline{Name: p.Name()}
	for i, s := range p.Steps() {
		sc := config.NewStep(s.Type(), s.Label())
		sc.Enabled = s.Enabled()
		if u, ok := s.(*Unknown); ok {
			sc.Type = u.OriginalType
			sc.UUID = u.OriginalUUID
		} else if r, ok := reg.Lookup(s.Type()); ok {
			sc.UUID = r.UUID
		}
		if err := s.WriteParameters(sc.Params); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.Label(), err)
		}
		out.Steps = append(out.Steps, sc)
	}
	return out, nil
}
