// Package config defines the format-agnostic pipeline file model and the
// Loader and Writer interfaces implemented by the hcl, jsonfile and yamlfile
// packages.
//
// A config.Pipeline is pure data: step types, labels and raw parameter
// values. The builder package turns it into a runnable pipeline through the
// step registry, and Describe goes the other way.
package config
