package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/params"
)

// ValidateRegistry checks every registration: the factory must exist, build a
// step reporting the registered type, and accept its own default parameters.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, typeName := range r.Types() {
		reg := r.byType[typeName]
		if reg.New == nil {
			errs = append(errs, fmt.Sprintf("step '%s': no factory", typeName))
			continue
		}

		s := reg.New()
		if s == nil {
			errs = append(errs, fmt.Sprintf("step '%s': factory returned nil", typeName))
			continue
		}
		if s.Type() != typeName {
			errs = append(errs, fmt.Sprintf("step '%s': factory builds a step of type '%s'", typeName, s.Type()))
		}

		defaults := params.Values{}
		if err := s.WriteParameters(defaults); err != nil {
			errs = append(errs, fmt.Sprintf("step '%s': cannot write default parameters: %v", typeName, err))
			continue
		}
		if err := reg.New().ReadParameters(defaults); err != nil {
			errs = append(errs, fmt.Sprintf("step '%s': cannot read back its default parameters: %v", typeName, err))
		}
		if reg.Description == "" {
			logger.Warn("Step type has no description.", "type", typeName)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
