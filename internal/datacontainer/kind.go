package datacontainer

import (
	"fmt"
	"strings"
)

// SetKind says what the tuples of an attribute set describe.
type SetKind int

const (
	Vertex SetKind = iota
	Edge
	Face
	Cell
	VertexFeature
	EdgeFeature
	FaceFeature
	CellFeature
	VertexEnsemble
	EdgeEnsemble
	FaceEnsemble
	CellEnsemble
	MetaData
	Generic
	UnknownKind SetKind = 999
)

var setKindNames = map[SetKind]string{
	Vertex:         "vertex",
	Edge:           "edge",
	Face:           "face",
	Cell:           "cell",
	VertexFeature:  "vertex_feature",
	EdgeFeature:    "edge_feature",
	FaceFeature:    "face_feature",
	CellFeature:    "cell_feature",
	VertexEnsemble: "vertex_ensemble",
	EdgeEnsemble:   "edge_ensemble",
	FaceEnsemble:   "face_ensemble",
	CellEnsemble:   "cell_ensemble",
	MetaData:       "metadata",
	Generic:        "generic",
	UnknownKind:    "unknown",
}

func (k SetKind) String() string {
	if n, ok := setKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("set_kind(%d)", int(k))
}

// ParseSetKind maps a name such as "cell" or "CellFeature" to its kind.
// Underscores and case are ignored.
func ParseSetKind(name string) (SetKind, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for k, n := range setKindNames {
		if strings.ReplaceAll(n, "_", "") == norm {
			return k, nil
		}
	}
	return UnknownKind, fmt.Errorf("unknown attribute set kind %q", name)
}
