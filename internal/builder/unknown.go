package builder

import (
	"context"

	"github.com/google/uuid"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
)

// UnknownType is the type name reported by Unknown steps.
const UnknownType = "unknown"

// Unknown stands in for a step whose type is not registered. It keeps the
// original identity and parameters so the pipeline can be written back.
type Unknown struct {
	step.Base
	OriginalType string
	OriginalUUID uuid.UUID
	values       params.Values
}

var _ step.Step = (*Unknown)(nil)

func NewUnknown(typeName string, id uuid.UUID) *Unknown {
	u := &Unknown{Base: step.NewBase(UnknownType), OriginalType: typeName, OriginalUUID: id, values: params.Values{}}
	name := typeName
	if name == "" {
		name = id.String()
	}
	u.SetLabel("Unknown Filter: " + name)
	return u
}

func (u *Unknown) err() error {
	name := u.OriginalType
	if name == "" {
		name = u.OriginalUUID.String()
	}
	return dataerr.New(dataerr.UnknownStep, "", "step type %q is not registered", name)
}

func (u *Unknown) Validate(context.Context, *step.Env) error { return u.err() }

func (u *Unknown) Commit(context.Context, *step.Env) error { return u.err() }

func (u *Unknown) ReadParameters(r params.Reader) error {
	u.values = params.Values{}
	for _, name := range r.Names() {
		u.values[name] = r.Value(name)
	}
	return nil
}

func (u *Unknown) WriteParameters(w params.Writer) error {
	for name, v := range u.values {
		w.Set(name, v)
	}
	return nil
}
