package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/voxelflow/internal/config"
	"github.com/vk/voxelflow/internal/hcl"
	"github.com/vk/voxelflow/internal/jsonfile"
	"github.com/vk/voxelflow/internal/yamlfile"
)

type format int

const (
	formatHCL format = iota
	formatJSON
	formatYAML
)

func formatOf(path string) (format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		return formatHCL, nil
	case ".json", ".jsonc":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported pipeline file extension %q: use .hcl, .json, .jsonc, .yaml or .yml", ext)
	}
}

// loaderFor picks the pipeline file reader by extension.
func loaderFor(path string) (config.Loader, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case formatJSON:
		return jsonfile.NewLoader(), nil
	case formatYAML:
		return yamlfile.NewLoader(), nil
	}
	return hcl.NewLoader(), nil
}

// writerFor picks the pipeline file writer by extension.
func writerFor(path string) (config.Writer, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case formatJSON:
		return jsonfile.NewWriter(), nil
	case formatYAML:
		return yamlfile.NewWriter(), nil
	}
	return hcl.NewWriter(), nil
}
