package hcl

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/voxelflow/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Writer is the HCL implementation of config.Writer.
type Writer struct{}

var _ config.Writer = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{}
}

// Write renders p as a single pipeline block.
func (Writer) Write(_ context.Context, w io.Writer, p *config.Pipeline) error {
	f := hclwrite.NewEmptyFile()
	pb := f.Body().AppendNewBlock("pipeline", []string{p.Name}).Body()

	for i, s := range p.Steps {
		if i > 0 {
			pb.AppendNewline()
		}
		sb := pb.AppendNewBlock("step", []string{s.Type, s.Label}).Body()
		if !s.Enabled {
			sb.SetAttributeValue(attrEnabled, cty.False)
		}
		if s.UUID != uuid.Nil {
			sb.SetAttributeValue(attrUUID, cty.StringVal(s.UUID.String()))
		}
		for _, name := range s.Params.Names() {
			if name == attrEnabled || name == attrUUID || !hclsyntax.ValidIdentifier(name) {
				return fmt.Errorf("step %q: parameter name %q cannot be written as an HCL attribute", s.Label, name)
			}
			v := s.Params.Value(name)
			if v == cty.NilVal || !v.IsWhollyKnown() {
				continue
			}
			sb.SetAttributeValue(name, v)
		}
	}

	_, err := f.WriteTo(w)
	return err
}
