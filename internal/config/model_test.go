package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromPath(t *testing.T) {
	assert.Equal(t, "segment", NameFromPath("pipelines/segment.json"))
	assert.Equal(t, "a.b", NameFromPath("/tmp/a.b.hcl"))
	assert.Equal(t, "plain", NameFromPath("plain"))
}

func TestNewStep(t *testing.T) {
	s := NewStep("create_data_array", "Create")
	assert.True(t, s.Enabled)
	assert.NotNil(t, s.Params)
	assert.Empty(t, s.Params)
}
