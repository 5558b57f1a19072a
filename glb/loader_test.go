package glb

import (
	"path/filepath"
	"testing"

	vm "rt_renderer/vector_math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var floor = [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}}

func triangleDoc(withNormals bool) *gltf.Document {
	doc := gltf.NewDocument()
	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(doc, floor),
	}
	if withNormals {
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, [][3]float32{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}})
	}
	doc.Meshes = []*gltf.Mesh{{
		Name: "floor",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, []uint32{0, 1, 2})),
			Attributes: attrs,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0), Translation: [3]float64{0, 2, 0}}}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func TestFromDocumentBakesNodeTransform(t *testing.T) {
	models, err := FromDocument(triangleDoc(true))
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, "floor", m.Name)
	assert.Equal(t, []uint32{0, 1, 2}, m.Mesh.Indices)
	require.Len(t, m.Mesh.Vertices, 3)
	for i, v := range m.Mesh.Vertices {
		assert.InDelta(t, floor[i][0], v.Position.X, 1e-6)
		assert.InDelta(t, floor[i][1]+2, v.Position.Y, 1e-6)
		assert.InDelta(t, floor[i][2], v.Position.Z, 1e-6)
		assert.InDelta(t, 1, v.Normal.Y, 1e-6)
	}
}

func TestFromDocumentComputesMissingNormals(t *testing.T) {
	models, err := FromDocument(triangleDoc(false))
	require.NoError(t, err)
	for _, v := range models[0].Mesh.Vertices {
		assert.InDelta(t, 0, v.Normal.X, 1e-6)
		assert.InDelta(t, 1, v.Normal.Y, 1e-6)
		assert.InDelta(t, 0, v.Normal.Z, 1e-6)
	}
}

func TestFromDocumentWithoutScenesReadsEveryMesh(t *testing.T) {
	doc := triangleDoc(true)
	doc.Scenes = nil
	doc.Scene = nil

	models, err := FromDocument(doc)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, vm.Vec3{X: 0, Y: 0, Z: 1}, models[0].Mesh.Vertices[1].Position, "no node transform applies")
}

func TestFromDocumentRejectsBrokenGeometry(t *testing.T) {
	doc := triangleDoc(true)
	doc.Meshes[0].Primitives[0].Mode = gltf.PrimitiveLines
	_, err := FromDocument(doc)
	assert.ErrorIs(t, err, ErrNoGeometry)

	doc = triangleDoc(true)
	delete(doc.Meshes[0].Primitives[0].Attributes, gltf.POSITION)
	_, err = FromDocument(doc)
	assert.ErrorIs(t, err, ErrNoPositions)

	doc = triangleDoc(true)
	doc.Meshes[0].Primitives[0].Indices = gltf.Index(modeler.WriteIndices(doc, []uint32{0, 1, 7}))
	_, err = FromDocument(doc)
	assert.Error(t, err)
}

func TestMirroringNodeKeepsFrontFaces(t *testing.T) {
	doc := triangleDoc(false)
	doc.Nodes[0].Translation = [3]float64{}
	doc.Nodes[0].Scale = [3]float64{-1, 1, 1}

	models, err := FromDocument(doc)
	require.NoError(t, err)
	m := models[0].Mesh
	assert.Equal(t, []uint32{0, 2, 1}, m.Indices)

	// the mirrored triangle still faces up when walked in index order
	a, b, c := m.Vertices[m.Indices[0]].Position, m.Vertices[m.Indices[1]].Position, m.Vertices[m.Indices[2]].Position
	assert.Greater(t, b.Sub(a).Cross(c.Sub(a)).Y, float32(0))
	assert.InDelta(t, 1, m.Vertices[0].Normal.Y, 1e-6)
}

func TestOutOfRangeAccessorIsAnError(t *testing.T) {
	doc := triangleDoc(true)
	doc.Meshes[0].Primitives[0].Attributes[gltf.NORMAL] = 99
	assert.NotPanics(t, func() {
		_, err := FromDocument(doc)
		assert.ErrorContains(t, err, "accessor index 99")
	})

	doc = triangleDoc(true)
	doc.Meshes[0].Primitives[0].Indices = gltf.Index(-1)
	assert.NotPanics(t, func() {
		_, err := FromDocument(doc)
		assert.Error(t, err)
	})
}

func TestReadFileBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floor.glb")
	require.NoError(t, gltf.SaveBinary(triangleDoc(true), path))

	models, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.NoError(t, models[0].Validate())
}
