package hcl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/voxelflow/internal/config"
	"github.com/vk/voxelflow/internal/params"
	"github.com/zclconf/go-cty/cty"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
pipeline "segment" {
  step "create_data_array" "Create Phases" {
    path           = "DC/Cell/${upper("phases")}"
    type           = "int32"
    component_dims = [1]
    init_value     = max(1, 7)
  }

  step "remove_data" "Cleanup" {
    enabled = false
    uuid    = "0b9a7a51-5d0c-4f1a-8f4e-0ad7b3b3d4a1"
    paths   = ["DC/Cell/Tmp"]
  }
}
`)

	p, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "segment", p.Name)
	assert.Equal(t, path, p.Source)
	require.Len(t, p.Steps, 2)

	first := p.Steps[0]
	assert.Equal(t, "create_data_array", first.Type)
	assert.Equal(t, "Create Phases", first.Label)
	assert.True(t, first.Enabled)

	got, err := params.Get[string](first.Params, "path")
	require.NoError(t, err)
	assert.Equal(t, "DC/Cell/PHASES", got)

	dims, err := params.Get[[]int](first.Params, "component_dims")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, dims)

	initValue, err := params.Get[int](first.Params, "init_value")
	require.NoError(t, err)
	assert.Equal(t, 7, initValue)

	second := p.Steps[1]
	assert.False(t, second.Enabled)
	assert.Equal(t, uuid.MustParse("0b9a7a51-5d0c-4f1a-8f4e-0ad7b3b3d4a1"), second.UUID)
	assert.Equal(t, []string{"paths"}, second.Params.Names())
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "syntax", content: `pipeline "x" {`, wantErr: "failed to parse HCL file"},
		{name: "no pipeline", content: ``, wantErr: "expected exactly one pipeline block, found 0"},
		{name: "two pipelines", content: "pipeline \"a\" {}\npipeline \"b\" {}\n", wantErr: "found 2"},
		{name: "bad uuid", content: `pipeline "a" {
  step "t" "s" {
    uuid = "nope"
  }
}`, wantErr: "invalid uuid"},
		{name: "unknown variable", content: `pipeline "a" {
  step "t" "s" {
    value = missing
  }
}`, wantErr: `step "s"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().Load(context.Background(), writeFile(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	id := uuid.New()
	in := &config.Pipeline{Name: "roundtrip"}
	s := config.NewStep("replace_value", "Replace")
	s.UUID = id
	s.Enabled = false
	s.Params["path"] = cty.StringVal("DC/Cell/A")
	s.Params["remove_value"] = cty.NumberIntVal(-1)
	in.Steps = append(in.Steps, s)

	var buf bytes.Buffer
	require.NoError(t, NewWriter().Write(context.Background(), &buf, in))
	assert.Contains(t, buf.String(), `pipeline "roundtrip"`)
	assert.Contains(t, buf.String(), `step "replace_value" "Replace"`)

	out, err := NewLoader().Load(context.Background(), writeFile(t, buf.String()))
	require.NoError(t, err)
	require.Len(t, out.Steps, 1)
	assert.Equal(t, id, out.Steps[0].UUID)
	assert.False(t, out.Steps[0].Enabled)
	assert.True(t, out.Steps[0].Params.Value("path").RawEquals(cty.StringVal("DC/Cell/A")))
	assert.True(t, out.Steps[0].Params.Value("remove_value").Equals(cty.NumberIntVal(-1)).True())
}

func TestWrite_RejectsReservedName(t *testing.T) {
	s := config.NewStep("t", "s")
	s.Params["enabled"] = cty.True
	err := NewWriter().Write(context.Background(), &bytes.Buffer{}, &config.Pipeline{Name: "x", Steps: []*config.Step{s}})
	assert.ErrorContains(t, err, "cannot be written")
}
