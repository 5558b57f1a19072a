package model

import (
	"testing"

	vm "rt_renderer/vector_math"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformSizes(t *testing.T) {
	u := NewModelUniform()
	mat := DefaultMaterial()
	light := DefaultLight()
	assert.Len(t, u.Bytes(), ModelUniformSize)
	assert.Len(t, mat.Bytes(), MaterialSize)
	assert.Len(t, light.Bytes(), LightSize)

	pc := NewPushConstants(vm.DefaultOrbitCamera().At(0, 1))
	assert.Len(t, pc.Bytes(), PushConstantsSize)
}

func TestPushConstantsCarryCamera(t *testing.T) {
	cam := vm.DefaultOrbitCamera().At(2, 16.0/9.0)
	pc := NewPushConstants(cam)
	assert.Equal(t, cam.View, pc.View)
	assert.Equal(t, cam.Proj, pc.Proj)
	assert.Equal(t, [3]float32{cam.Position.X, cam.Position.Y, cam.Position.Z}, pc.CameraPos)
}

func TestMaterialPacking(t *testing.T) {
	mat := DefaultMaterial()
	raw := mat.Bytes()
	// shininess shares the last 16 Byte row with the specular color
	assert.Equal(t, []byte{0, 0, 0, 0x42}, raw[44:48])
	// padding after ambient stays zero
	assert.Equal(t, []byte{0, 0, 0, 0}, raw[12:16])
}

func TestModelUniformStartsAsIdentity(t *testing.T) {
	u := NewModelUniform()
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			want := float32(0)
			if c == r {
				want = 1
			}
			assert.Equal(t, want, u.Model[c][r])
		}
	}
}

func TestPrimitivesAreValid(t *testing.T) {
	for _, m := range []*Model{NewCubeModel("cube"), NewGridPlane("plane"), NewTriangleModel("tri")} {
		require.NoError(t, m.Validate(), m.Name)
	}
	cube := NewCubeModel("cube")
	assert.Len(t, cube.Mesh.Vertices, 24)
	assert.Len(t, cube.Mesh.Indices, 36)
	assert.Len(t, cube.VertexBytes(), 24*int(vm.VertexStride))
	assert.Len(t, cube.IndexBytes(), 36*4)

	tri := NewTriangleModel("tri")
	assert.False(t, tri.Mesh.IsIndexed())
	assert.Nil(t, tri.IndexBytes())
}

func TestCubeWindsCounterClockwiseFromOutside(t *testing.T) {
	mesh := NewCubeModel("cube").Mesh
	for i := 0; i < len(mesh.Indices); i += 3 {
		a := mesh.Vertices[mesh.Indices[i]]
		b := mesh.Vertices[mesh.Indices[i+1]]
		c := mesh.Vertices[mesh.Indices[i+2]]
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		assert.Greater(t, n.Dot(a.Normal), float32(0), "triangle %d", i/3)
		// outward facing
		assert.Greater(t, a.Position.Dot(a.Normal), float32(0), "triangle %d", i/3)
	}
}

func TestSceneValidation(t *testing.T) {
	assert.ErrorIs(t, NewScene().Validate(), ErrEmptyScene)

	broken := NewTriangleModel("broken")
	broken.Mesh.Indices = []uint32{0, 1, 7}
	err := NewScene(NewCubeModel("cube"), broken).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	assert.NoError(t, NewScene(NewCubeModel("cube")).Validate())
}
