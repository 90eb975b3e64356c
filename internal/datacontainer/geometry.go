package datacontainer

import "fmt"

// Geometry describes the spatial layout of a container. The engine treats it
// as opaque; steps that understand a concrete geometry type assert it.
type Geometry interface {
	GeometryType() string
	Clone() Geometry
	Info() string
}

// ImageGeometry is a regular grid of voxels.
type ImageGeometry struct {
	Dims    [3]int     `cty:"dims"`
	Origin  [3]float64 `cty:"origin"`
	Spacing [3]float64 `cty:"spacing"`
}

var _ Geometry = (*ImageGeometry)(nil)

// NewImageGeometry creates a grid with unit spacing at the origin.
func NewImageGeometry(dims [3]int) *ImageGeometry {
	return &ImageGeometry{Dims: dims, Spacing: [3]float64{1, 1, 1}}
}

func (g *ImageGeometry) GeometryType() string { return "image" }

// NumElements is the voxel count.
func (g *ImageGeometry) NumElements() int {
	return g.Dims[0] * g.Dims[1] * g.Dims[2]
}

// TupleDims returns the grid dims in the x, y, z order used for cell sets.
func (g *ImageGeometry) TupleDims() []int {
	return []int{g.Dims[0], g.Dims[1], g.Dims[2]}
}

func (g *ImageGeometry) Clone() Geometry {
	c := *g
	return &c
}

func (g *ImageGeometry) Info() string {
	return fmt.Sprintf("Geometry: image\nDimensions: %v\nOrigin: %v\nSpacing: %v\n", g.Dims, g.Origin, g.Spacing)
}
