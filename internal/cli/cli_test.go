package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/voxelflow/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		args      []string
		env       map[string]string
		want      *app.Config
		exit      bool
		wantCode  int
		wantInErr string
	}{
		{
			name: "defaults",
			args: []string{"pipeline.hcl"},
			want: &app.Config{
				PipelinePath:        "pipeline.hcl",
				SnapshotCompression: "zstd",
				LogFormat:           "text",
				LogLevel:            "info",
			},
		},
		{
			name: "every flag",
			args: []string{
				"--log-level", "DEBUG", "--log-format", "json", "-w", "4",
				"--healthcheck-port", "8081", "--progress-url", "http://localhost:3000",
				"--snapshot-out", "out.vfs", "--snapshot-compression", "lz4",
				"--export", "copy.yaml", "--validate-only", "p.yaml",
			},
			want: &app.Config{
				PipelinePath:        "p.yaml",
				ExportPath:          "copy.yaml",
				SnapshotOut:         "out.vfs",
				SnapshotCompression: "lz4",
				ProgressURL:         "http://localhost:3000",
				LogFormat:           "json",
				LogLevel:            "debug",
				HealthcheckPort:     8081,
				WorkerCount:         4,
				ValidateOnly:        true,
			},
		},
		{
			name: "environment provides defaults",
			args: []string{"p.json"},
			env: map[string]string{
				"VOXELFLOW_LOG_LEVEL":        "warn",
				"VOXELFLOW_WORKERS":          "2",
				"VOXELFLOW_HEALTHCHECK_PORT": "9000",
			},
			want: &app.Config{
				PipelinePath:        "p.json",
				SnapshotCompression: "zstd",
				LogFormat:           "text",
				LogLevel:            "warn",
				HealthcheckPort:     9000,
				WorkerCount:         2,
			},
		},
		{
			name: "flags override the environment",
			args: []string{"--workers", "8", "p.json"},
			env:  map[string]string{"VOXELFLOW_WORKERS": "2"},
			want: &app.Config{
				PipelinePath:        "p.json",
				SnapshotCompression: "zstd",
				LogFormat:           "text",
				LogLevel:            "info",
				WorkerCount:         8,
			},
		},
		{
			name: "list steps without a file",
			args: []string{"--list-steps"},
			want: &app.Config{
				SnapshotCompression: "zstd",
				LogFormat:           "text",
				LogLevel:            "info",
				ListSteps:           true,
			},
		},
		{name: "help", args: []string{"--help"}, exit: true},
		{name: "no file prints usage", args: nil, exit: true},
		{name: "unknown flag", args: []string{"--frobnicate", "p.hcl"}, wantCode: 2, wantInErr: "unknown flag"},
		{name: "two files", args: []string{"a.hcl", "b.hcl"}, wantCode: 2, wantInErr: "single pipeline file"},
		{name: "bad log format", args: []string{"--log-format", "xml", "p.hcl"}, wantCode: 2, wantInErr: "log-format"},
		{name: "bad log level", args: []string{"--log-level", "loud", "p.hcl"}, wantCode: 2, wantInErr: "log-level"},
		{name: "bad extension", args: []string{"p.txt"}, wantCode: 2, wantInErr: "extension"},
		{name: "bad compression", args: []string{"--snapshot-compression", "gzip", "p.hcl"}, wantCode: 2, wantInErr: "compression"},
		{name: "bad env", args: []string{"p.hcl"}, env: map[string]string{"VOXELFLOW_WORKERS": "lots"}, wantCode: 2, wantInErr: "environment"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(tc.args, out)

			if tc.wantCode != 0 {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantInErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.exit, exit)
			if tc.exit {
				assert.Contains(t, out.String(), "Usage:")
				assert.Nil(t, cfg)
				return
			}
			assert.Equal(t, tc.want, cfg)
		})
	}
}
