package model

import vm "rt_renderer/vector_math"

// Built-in meshes. All faces wind counter-clockwise when seen from the side their normal points to.

type face struct {
	normal vm.Vec3
	u, v   vm.Vec3 // u x v == normal
}

var cubeFaces = []face{
	{normal: vm.Vec3{X: 1}, u: vm.Vec3{Z: -1}, v: vm.Vec3{Y: 1}},  // right
	{normal: vm.Vec3{X: -1}, u: vm.Vec3{Z: 1}, v: vm.Vec3{Y: 1}},  // left
	{normal: vm.Vec3{Y: 1}, u: vm.Vec3{X: 1}, v: vm.Vec3{Z: -1}},  // top
	{normal: vm.Vec3{Y: -1}, u: vm.Vec3{X: 1}, v: vm.Vec3{Z: 1}},  // bottom
	{normal: vm.Vec3{Z: 1}, u: vm.Vec3{X: 1}, v: vm.Vec3{Y: 1}},   // front
	{normal: vm.Vec3{Z: -1}, u: vm.Vec3{X: -1}, v: vm.Vec3{Y: 1}}, // back
}

// appendQuad adds the four corners center -u -v, +u -v, +u +v, -u +v and two triangles covering them.
func appendQuad(v []vm.Vertex, id []uint32, center vm.Vec3, f face, half float32) ([]vm.Vertex, []uint32) {
	base := uint32(len(v))
	u := f.u.ScalarMul(half)
	w := f.v.ScalarMul(half)
	corners := [4]struct {
		pos vm.Vec3
		uv  vm.Vec2
	}{
		{center.Sub(u).Sub(w), vm.Vec2{X: 0, Y: 1}},
		{center.Add(u).Sub(w), vm.Vec2{X: 1, Y: 1}},
		{center.Add(u).Add(w), vm.Vec2{X: 1, Y: 0}},
		{center.Sub(u).Add(w), vm.Vec2{X: 0, Y: 0}},
	}
	for _, c := range corners {
		v = append(v, vm.Vertex{Position: c.pos, Normal: f.normal, TexCoord: c.uv})
	}
	id = append(id,
		base, base+1, base+2,
		base+2, base+3, base,
	)
	return v, id
}

// NewCubeModel creates a unit cube centered on the origin with flat shaded faces (24 vertices, 36 indices).
func NewCubeModel(name string) *Model {
	v := make([]vm.Vertex, 0, 24)
	id := make([]uint32, 0, 36)
	for _, f := range cubeFaces {
		v, id = appendQuad(v, id, f.normal.ScalarMul(0.5), f, 0.5)
	}
	return NewModel(vm.NewMesh(v, id), name)
}

// NewGridPlane creates a 2x2 plane on y = 0 facing +Y.
func NewGridPlane(name string) *Model {
	v, id := appendQuad(nil, nil, vm.Vec3{}, cubeFaces[2], 1)
	return NewModel(vm.NewMesh(v, id), name)
}

// NewTriangleModel creates a single non indexed triangle in the z = 0 plane facing +Z.
func NewTriangleModel(name string) *Model {
	n := vm.Vec3{Z: 1}
	v := []vm.Vertex{
		{Position: vm.Vec3{X: -0.5, Y: -0.5}, Normal: n, TexCoord: vm.Vec2{X: 0, Y: 1}},
		{Position: vm.Vec3{X: 0.5, Y: -0.5}, Normal: n, TexCoord: vm.Vec2{X: 1, Y: 1}},
		{Position: vm.Vec3{X: 0, Y: 0.5}, Normal: n, TexCoord: vm.Vec2{X: 0.5, Y: 0}},
	}
	return NewModel(vm.NewMesh(v, nil), name)
}
