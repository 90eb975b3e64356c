package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/snapshot"
	vftestutil "github.com/vk/voxelflow/internal/testutil"
	"github.com/vk/voxelflow/internal/yamlfile"
)

const imagePipeline = `
pipeline "image" {
  step "create_data_container" "Image" {
    name     = "Image"
    geometry = { dims = [2, 2, 1] }
  }

  step "create_attribute_set" "Cells" {
    path = "Image/Cells"
    kind = "cell"
  }

  step "create_data_array" "Phases" {
    path       = "Image/Cells/Phases"
    type       = "int32"
    init_value = 0
  }

  step "replace_value" "Phase one" {
    path          = "Image/Cells/Phases"
    remove_value  = 0
    replace_value = 1
  }

  step "find_statistics" "Stats" {
    source = "Image/Cells/Phases"
    output = "Image/PhaseStats"
  }
}
`

func writePipeline(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// setupApp creates an App with debug logging captured in a buffer.
func setupApp(t *testing.T, cfg Config) (*App, *vftestutil.SafeBuffer) {
	t.Helper()
	cfg.LogLevel = "debug"
	c, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &vftestutil.SafeBuffer{}
	t.Cleanup(func() { vftestutil.DumpLogs(t, out) })
	return NewApp(out, c), out
}

func TestRun_ValidatesAndCommits(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "out.vfs")
	export := filepath.Join(dir, "exported.yaml")

	a, out := setupApp(t, Config{
		PipelinePath:        writePipeline(t, "image.hcl", imagePipeline),
		SnapshotOut:         snap,
		SnapshotCompression: "lz4",
		ExportPath:          export,
		WorkerCount:         2,
	})
	require.NoError(t, a.Run(context.Background()))

	logs := out.String()
	assert.Contains(t, logs, "validate: validated (5/5 steps")
	assert.Contains(t, logs, "commit: committed (5/5 steps")
	assert.Contains(t, logs, "[4/5] Phase one: Replaced 4 values")

	coll, err := snapshot.ReadFile(context.Background(), snap)
	require.NoError(t, err)
	phases, err := datacontainer.Fetch[int32](coll, datapath.MustParse("Image/Cells/Phases"), nil)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 1, 1, 1}, phases.Values())
	mean, err := datacontainer.Fetch[float64](coll, datapath.MustParse("Image/PhaseStats/Mean"), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, mean.Values())

	exported, err := yamlfile.NewLoader().Load(context.Background(), export)
	require.NoError(t, err)
	assert.Equal(t, "image", exported.Name)
	require.Len(t, exported.Steps, 5)
	assert.Equal(t, "replace_value", exported.Steps[3].Type)
	assert.Equal(t, "Phase one", exported.Steps[3].Label)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics().RunsTotal.WithLabelValues("commit", "committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics().StepsTotal.WithLabelValues("commit", "find_statistics", "ok")))
}

func TestRun_ValidateOnlyDoesNotCommit(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "out.vfs")
	a, out := setupApp(t, Config{
		PipelinePath: writePipeline(t, "image.hcl", imagePipeline),
		SnapshotOut:  snap,
		ValidateOnly: true,
	})
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "validate: validated")
	assert.NotContains(t, out.String(), "commit: committed")
	_, err := os.Stat(snap)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_ValidationFailure(t *testing.T) {
	a, out := setupApp(t, Config{
		PipelinePath: writePipeline(t, "broken.yaml", `
name: broken
steps:
  - type: create_data_array
    label: Orphan
    params:
      path: Missing/Cells/A
`),
	})
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerr.MissingContainer)
	assert.Contains(t, err.Error(), "step 1 (Orphan)")
	assert.Contains(t, out.String(), "validation_failed")
}

func TestRun_UnknownStepFailsValidation(t *testing.T) {
	a, _ := setupApp(t, Config{
		PipelinePath: writePipeline(t, "legacy.json", `{
  // written by an older release
  "0": {"Filter_Name": "MysteryFilter", "Filter_Human_Label": "Mystery"},
  "PipelineBuilder": {"Name": "legacy", "Number_Filters": 1, "Version": "1"}
}`),
	})
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerr.UnknownStep)
	assert.Equal(t, -66066, dataerr.CodeOf(err))
}

func TestRun_LoadErrors(t *testing.T) {
	a, _ := setupApp(t, Config{PipelinePath: filepath.Join(t.TempDir(), "absent.hcl")})
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load pipeline")
}

func TestRun_ListSteps(t *testing.T) {
	a, out := setupApp(t, Config{ListSteps: true})
	require.NoError(t, a.Run(context.Background()))
	listing := out.String()
	for _, typeName := range a.Registry().Types() {
		assert.Contains(t, listing, typeName)
	}
	assert.Contains(t, listing, "TYPE")
	assert.Equal(t, 13, a.Registry().Len())
}

func TestRoutes(t *testing.T) {
	a, _ := setupApp(t, Config{ListSteps: true})
	srv := httptest.NewServer(a.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	a.Metrics().RunsTotal.WithLabelValues("validate", "validated").Inc()
	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "voxelflow_pipeline_runs_total")
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{PipelinePath: "p.hcl"}},
		{name: "list steps needs no file", cfg: Config{ListSteps: true}},
		{name: "missing path", cfg: Config{}, wantErr: "PipelinePath is a required"},
		{name: "unknown extension", cfg: Config{PipelinePath: "p.toml"}, wantErr: "unsupported pipeline file extension"},
		{name: "bad export", cfg: Config{PipelinePath: "p.yml", ExportPath: "x.txt"}, wantErr: "export"},
		{name: "bad compression", cfg: Config{PipelinePath: "p.json", SnapshotCompression: "gzip"}, wantErr: "unknown compression"},
		{name: "negative workers", cfg: Config{PipelinePath: "p.jsonc", WorkerCount: -1}, wantErr: "worker count"},
		{name: "bad port", cfg: Config{PipelinePath: "p.hcl", HealthcheckPort: 70000}, wantErr: "out of range"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg, *cfg)
		})
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("VOXELFLOW_LOG_LEVEL", "debug")
	t.Setenv("VOXELFLOW_WORKERS", "3")
	t.Setenv("VOXELFLOW_PROGRESS_URL", "http://localhost:9000/")

	env, err := LoadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "debug", env.LogLevel)
	assert.Equal(t, "text", env.LogFormat)
	assert.Equal(t, 3, env.Workers)
	assert.Equal(t, "http://localhost:9000/", env.ProgressURL)
	assert.Equal(t, "zstd", env.SnapshotCompression)

	t.Setenv("VOXELFLOW_WORKERS", "many")
	_, err = LoadEnvironment()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	buf := &vftestutil.SafeBuffer{}
	newLogger("warning", "json", buf).Info("hidden")
	newLogger("warning", "json", buf).Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
