package model

import (
	"fmt"

	"rt_renderer/common"
	vm "rt_renderer/vector_math"
)

// Model is a named, CPU side mesh. Uploading it produces the immutable GPU buffers used for drawing.
type Model struct {
	Name string
	Mesh *vm.Mesh
}

func NewModel(m *vm.Mesh, n string) *Model {
	return &Model{
		Name: n,
		Mesh: m,
	}
}

// VertexBytes returns the raw vertex data as it is laid out in the vertex buffer.
func (m *Model) VertexBytes() []byte {
	return common.RawBytes(m.Mesh.Vertices)
}

// IndexBytes returns the 32 bit index data, nil for non indexed models.
func (m *Model) IndexBytes() []byte {
	if !m.Mesh.IsIndexed() {
		return nil
	}
	return common.RawBytes(m.Mesh.Indices)
}

func (m *Model) Validate() error {
	if m.Mesh == nil {
		return fmt.Errorf("model %q has no mesh", m.Name)
	}
	if err := m.Mesh.Validate(); err != nil {
		return fmt.Errorf("model %q: %w", m.Name, err)
	}
	return nil
}
