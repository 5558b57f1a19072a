package vector_math

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Vertex is the per-vertex input of the scene pipeline. The field order and packing mirror the vertex shader
// inputs at locations 0, 1 and 2.
type Vertex struct {
	Position Vec3
	Normal   Vec3
	TexCoord Vec2
}

// VertexStride is the size of one Vertex in a vertex buffer (32 Byte, no padding).
const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

func GetVertexBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    VertexStride,
		InputRate: vk.VertexInputRateVertex,
	}
}

func GetVertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Location: 0,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
		},
		{
			Location: 1,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Normal)),
		},
		{
			Location: 2,
			Binding:  0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}
