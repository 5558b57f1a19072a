package model

import (
	"rt_renderer/common"
	vm "rt_renderer/vector_math"

	lin "github.com/xlab/linmath"
)

// Uniform blocks mirror the std140 layout of the scene shaders. A vec3 occupies 16 Byte unless the next
// member is a scalar that fits in its last 4 Byte.

// ModelUniform is bound at set 0, binding 0.
type ModelUniform struct {
	Model lin.Mat4x4 // 64 Byte
}

const (
	ModelUniformSize = 64
	MaterialSize     = 48
	LightSize        = 64
)

// Material is bound at set 1, binding 0.
type Material struct {
	Ambient   vm.Vec3
	_         float32
	Diffuse   vm.Vec3
	_         float32
	Specular  vm.Vec3
	Shininess float32
}

// Light is bound at set 1, binding 1.
type Light struct {
	Position vm.Vec3
	_        float32
	Ambient  vm.Vec3
	_        float32
	Diffuse  vm.Vec3
	_        float32
	Specular vm.Vec3
	_        float32
}

func NewModelUniform() ModelUniform {
	var u ModelUniform
	u.Model.Identity()
	return u
}

func DefaultMaterial() Material {
	return Material{
		Ambient:   vm.Vec3{X: 0.1, Y: 0.1, Z: 0.1},
		Diffuse:   vm.Vec3{X: 0.7, Y: 0.7, Z: 0.7},
		Specular:  vm.Vec3{X: 0.5, Y: 0.5, Z: 0.5},
		Shininess: 32,
	}
}

func DefaultLight() Light {
	return Light{
		Position: vm.Vec3{X: 3, Y: 3, Z: 3},
		Ambient:  vm.Vec3{X: 1, Y: 1, Z: 1},
		Diffuse:  vm.Vec3{X: 1, Y: 1, Z: 1},
		Specular: vm.Vec3{X: 2, Y: 2, Z: 2},
	}
}

func (u *ModelUniform) Bytes() []byte {
	return common.RawBytes(u)
}

func (m *Material) Bytes() []byte {
	return common.RawBytes(m)
}

func (l *Light) Bytes() []byte {
	return common.RawBytes(l)
}
