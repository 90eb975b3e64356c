package manage

import (
	"context"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

// CopyDataArray duplicates Source under NewName in the same attribute set.
type CopyDataArray struct {
	step.Base
	Source  datapath.Path
	NewName string
}

func NewCopyDataArray() *CopyDataArray {
	return &CopyDataArray{Base: step.NewBase(TypeCopyDataArray)}
}

func (s *CopyDataArray) Validate(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *CopyDataArray) Commit(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *CopyDataArray) apply(env *step.Env) error {
	if err := params.RequirePath(s.Source, "source"); err != nil {
		return err
	}
	src, err := env.Collection.ResolvePath(s.Source)
	if err != nil {
		return err
	}
	dst := s.Source.WithArray(s.NewName)
	if err := datapath.ValidateName(s.NewName); err != nil {
		return err
	}
	if err := env.Collection.RequireFree(dst, env.Mode()); err != nil {
		return err
	}
	cp := src.DeepCopy(env.Preflight())
	cp.SetName(s.NewName)
	_, err = env.Collection.InsertNew(s.Source.SetPath(), cp, env.Mode())
	return err
}

func (s *CopyDataArray) ReadParameters(r params.Reader) error {
	src, err := params.OptionalPath(r, "source", datapath.DepthArray)
	if err != nil {
		return err
	}
	name, err := params.Optional(r, "new_name", "")
	if err != nil {
		return err
	}
	s.Source, s.NewName = src, name
	return nil
}

func (s *CopyDataArray) WriteParameters(w params.Writer) error {
	params.PutPath(w, "source", s.Source)
	w.Set("new_name", cty.StringVal(s.NewName))
	return nil
}

// RenameDataArray gives the array at Path a new name.
type RenameDataArray struct {
	step.Base
	Path    datapath.Path
	NewName string
}

func NewRenameDataArray() *RenameDataArray {
	return &RenameDataArray{Base: step.NewBase(TypeRenameDataArray)}
}

func (s *RenameDataArray) Validate(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *RenameDataArray) Commit(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *RenameDataArray) apply(env *step.Env) error {
	if err := params.RequirePath(s.Path, "path"); err != nil {
		return err
	}
	return env.Collection.Rename(s.Path, s.NewName)
}

func (s *RenameDataArray) ReadParameters(r params.Reader) error {
	p, err := params.OptionalPath(r, "path", datapath.DepthArray)
	if err != nil {
		return err
	}
	name, err := params.Optional(r, "new_name", "")
	if err != nil {
		return err
	}
	s.Path, s.NewName = p, name
	return nil
}

func (s *RenameDataArray) WriteParameters(w params.Writer) error {
	params.PutPath(w, "path", s.Path)
	w.Set("new_name", cty.StringVal(s.NewName))
	return nil
}

// RemoveData deletes every object in Paths. Each path may address a
// container, an attribute set or an array.
type RemoveData struct {
	step.Base
	Paths []datapath.Path
}

func NewRemoveData() *RemoveData {
	return &RemoveData{Base: step.NewBase(TypeRemoveData)}
}

func (s *RemoveData) Validate(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *RemoveData) Commit(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *RemoveData) apply(env *step.Env) error {
	if len(s.Paths) == 0 {
		env.Warn(-11001, "", "no paths selected for removal")
		return nil
	}
	for _, p := range s.Paths {
		if err := env.Collection.RemovePath(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *RemoveData) ReadParameters(r params.Reader) error {
	raw, err := params.Optional[[]string](r, "paths", nil)
	if err != nil {
		return err
	}
	paths := make([]datapath.Path, 0, len(raw))
	for _, str := range raw {
		p, err := datapath.Parse(str)
		if err != nil {
			return dataerr.New(dataerr.InvalidParameter, str, "parameter %q: %v", "paths", err)
		}
		paths = append(paths, p)
	}
	s.Paths = paths
	return nil
}

func (s *RemoveData) WriteParameters(w params.Writer) error {
	raw := make([]string, len(s.Paths))
	for i, p := range s.Paths {
		raw[i] = p.String()
	}
	return params.Put(w, "paths", raw)
}
