package vector_math

import (
	"errors"
	"fmt"
)

var ErrEmptyMesh = errors.New("mesh has no vertices")

// Mesh is a flat vertex list with an optional 32 bit index list forming a triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func NewMesh(v []Vertex, id []uint32) *Mesh {
	return &Mesh{
		Vertices: v,
		Indices:  id,
	}
}

// IsIndexed reports whether the mesh is drawn through its index list.
func (m *Mesh) IsIndexed() bool {
	return len(m.Indices) > 0
}

// Validate ensures every index addresses an existing vertex.
func (m *Mesh) Validate() error {
	if len(m.Vertices) == 0 {
		return ErrEmptyMesh
	}
	vertexCnt := uint32(len(m.Vertices))
	for i, idx := range m.Indices {
		if idx >= vertexCnt {
			return fmt.Errorf("index %d at position %d out of range for %d vertices", idx, i, vertexCnt)
		}
	}
	return nil
}
