package datapath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/voxelflow/internal/dataerr"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  Path
		depth     Depth
	}{
		{
			name:     "array path",
			raw:      "DC/Cell/Array",
			expected: Path{Container: "DC", AttributeSet: "Cell", Array: "Array"},
			depth:    DepthArray,
		},
		{
			name:     "attribute set path",
			raw:      "DC/Cell",
			expected: Path{Container: "DC", AttributeSet: "Cell"},
			depth:    DepthAttributeSet,
		},
		{
			name:     "trailing slash is ignored",
			raw:      "DC/Cell/",
			expected: Path{Container: "DC", AttributeSet: "Cell"},
			depth:    DepthAttributeSet,
		},
		{
			name:     "container only",
			raw:      "ImageDataContainer",
			expected: Path{Container: "ImageDataContainer"},
			depth:    DepthContainer,
		},
		{
			name:     "names with spaces",
			raw:      "Image Data/Cell Data/Confidence Index",
			expected: Path{Container: "Image Data", AttributeSet: "Cell Data", Array: "Confidence Index"},
			depth:    DepthArray,
		},
		{name: "error - empty", raw: "", expectErr: true},
		{name: "error - blank", raw: "   ", expectErr: true},
		{name: "error - empty middle segment", raw: "DC//Array", expectErr: true},
		{name: "error - too many segments", raw: "a/b/c/d", expectErr: true},
		{name: "error - leading slash", raw: "/Cell/Array", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, dataerr.InvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.depth, got.Depth())
		})
	}
}

func TestPath_StringRoundTrip(t *testing.T) {
	for _, raw := range []string{"DC", "DC/Cell", "DC/Cell/Array", "A B/C D/E F"} {
		p, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, p.String())

		again, err := Parse(p.String())
		require.NoError(t, err)
		assert.True(t, p.Equal(again))
	}
}

func TestPath_Navigation(t *testing.T) {
	p := MustParse("DC/Cell/Array")

	assert.Equal(t, "DC/Cell", p.Parent().String())
	assert.Equal(t, "DC", p.Parent().Parent().String())
	assert.True(t, p.Parent().Parent().Parent().IsZero())
	assert.Equal(t, "DC/Cell/Other", p.WithArray("Other").String())
	assert.Equal(t, "DC/Feature", p.ContainerPath().WithAttributeSet("Feature").String())
	assert.Equal(t, "Array", p.Name())
	assert.Equal(t, "Cell", p.SetPath().Name())
}

func TestParseAt(t *testing.T) {
	_, err := ParseAt("DC/Cell", DepthArray)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerr.InvalidPath)

	p, err := ParseAt("DC/Cell", DepthAttributeSet)
	require.NoError(t, err)
	assert.Equal(t, "Cell", p.AttributeSet)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Cell Data"))
	assert.Equal(t, -10001, dataerr.CodeOf(ValidateName("")))
	assert.Equal(t, -80005, dataerr.CodeOf(ValidateName("a/b")))
	assert.Error(t, ValidateName("  "))
	assert.Error(t, ValidateName("tab\tname"))
}
