// Package checkpoint provides steps that save the collection to a snapshot
// file and load containers back from one.
package checkpoint

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/internal/snapshot"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

const (
	TypeWriteSnapshot = "write_snapshot"
	TypeReadSnapshot  = "read_snapshot"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the snapshot steps.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.Registration{
		Type:        TypeWriteSnapshot,
		Group:       "IO",
		Description: "Writes the whole collection to a snapshot file.",
		New:         func() step.Step { return NewWriteSnapshot() },
	})
	r.Register(registry.Registration{
		Type:        TypeReadSnapshot,
		Group:       "IO",
		Description: "Adds the containers stored in a snapshot file to the collection.",
		New:         func() step.Step { return NewReadSnapshot() },
	})
}

// WriteSnapshot saves the collection as it is when the step runs.
type WriteSnapshot struct {
	step.Base
	File        string
	Compression snapshot.Compression
}

func NewWriteSnapshot() *WriteSnapshot {
	return &WriteSnapshot{Base: step.NewBase(TypeWriteSnapshot), Compression: snapshot.CompressionZstd}
}

func (s *WriteSnapshot) Validate(_ context.Context, _ *step.Env) error {
	if s.File == "" {
		return dataerr.New(dataerr.InvalidParameter, "", "parameter %q: an output file is required", "file")
	}
	dir := filepath.Dir(s.File)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return dataerr.New(dataerr.InvalidParameter, s.File, "parameter %q: directory %q does not exist", "file", dir)
	}
	return nil
}

func (s *WriteSnapshot) Commit(ctx context.Context, env *step.Env) error {
	if err := s.Validate(ctx, env); err != nil {
		return err
	}
	env.Status("Writing %s", s.File)
	opts := snapshot.Options{Compression: s.Compression, Workers: env.Workers}
	if err := snapshot.WriteFile(ctx, s.File, env.Collection, opts); err != nil {
		return asStepError(s.File, err)
	}
	env.Progress(1, 1, "Snapshot written")
	return nil
}

func (s *WriteSnapshot) ReadParameters(r params.Reader) error {
	file, err := params.Optional(r, "file", "")
	if err != nil {
		return err
	}
	name, err := params.Optional(r, "compression", snapshot.CompressionZstd.String())
	if err != nil {
		return err
	}
	c, err := snapshot.ParseCompression(name)
	if err != nil {
		return dataerr.New(dataerr.InvalidParameter, "", "parameter %q: %v", "compression", err)
	}
	s.File, s.Compression = file, c
	return nil
}

func (s *WriteSnapshot) WriteParameters(w params.Writer) error {
	w.Set("file", cty.StringVal(s.File))
	w.Set("compression", cty.StringVal(s.Compression.String()))
	return nil
}

// ReadSnapshot adds every container of File to the collection. The
// containers must not exist yet. Validation reads the file too, so the file
// has to exist before the pipeline runs.
type ReadSnapshot struct {
	step.Base
	File string
}

func NewReadSnapshot() *ReadSnapshot {
	return &ReadSnapshot{Base: step.NewBase(TypeReadSnapshot)}
}

func (s *ReadSnapshot) Validate(ctx context.Context, env *step.Env) error {
	return s.apply(ctx, env)
}

func (s *ReadSnapshot) Commit(ctx context.Context, env *step.Env) error {
	if err := s.apply(ctx, env); err != nil {
		return err
	}
	env.Progress(1, 1, "Snapshot loaded")
	return nil
}

func (s *ReadSnapshot) apply(ctx context.Context, env *step.Env) error {
	if s.File == "" {
		return dataerr.New(dataerr.InvalidParameter, "", "parameter %q: an input file is required", "file")
	}
	loaded, err := snapshot.ReadFile(ctx, s.File)
	if err != nil {
		return asStepError(s.File, err)
	}
	for _, dc := range loaded.Containers() {
		if env.Preflight() {
			dc = dc.DeepCopy(true)
		}
		if _, err := env.Collection.InsertContainer(dc, env.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReadSnapshot) ReadParameters(r params.Reader) error {
	file, err := params.Optional(r, "file", "")
	if err != nil {
		return err
	}
	s.File = file
	return nil
}

func (s *ReadSnapshot) WriteParameters(w params.Writer) error {
	w.Set("file", cty.StringVal(s.File))
	return nil
}

// asStepError keeps engine errors and classifies file system failures.
func asStepError(file string, err error) error {
	var de *dataerr.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return dataerr.Wrap(dataerr.InvalidParameter, file, err).WithCode(-11002)
	}
	return dataerr.Wrap(dataerr.Compute, file, err)
}
