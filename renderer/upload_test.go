package renderer

import (
	"bytes"
	"strings"
	"testing"

	"rt_renderer/model"
	vm "rt_renderer/vector_math"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSceneCreatesOneBufferPerGeometryStream(t *testing.T) {
	up := &fakeUploader{}
	scene := model.NewScene(model.NewCubeModel("cube"), model.NewTriangleModel("tri"))

	var progress bytes.Buffer
	models, err := UploadScene(up, scene, &progress)
	require.NoError(t, err)
	require.Len(t, models, 2)

	cube, tri := models[0], models[1]
	assert.Equal(t, "cube", cube.Name)
	assert.True(t, cube.IsIndexed())
	assert.Equal(t, uint32(24), cube.VertexCount)
	assert.Equal(t, uint32(36), cube.IndexCount)
	assert.Equal(t, vk.DeviceSize(24*vm.VertexStride), cube.VertexBuffer.Size)
	assert.Equal(t, vk.DeviceSize(36*4), cube.IndexBuffer.Size)
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), cube.IndexBuffer.Usage)

	assert.False(t, tri.IsIndexed())
	assert.Equal(t, uint32(3), tri.VertexCount)
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), tri.VertexBuffer.Usage)

	assert.Len(t, up.uploads, 3)
	assert.NotEmpty(t, progress.String())

	ReleaseScene(up, models)
	assert.Equal(t, 0, up.live)
	assert.Nil(t, cube.VertexBuffer)
}

func TestUploadSceneRejectsOutOfRangeIndex(t *testing.T) {
	up := &fakeUploader{}
	mesh := vm.NewMesh(make([]vm.Vertex, 3), []uint32{0, 1, 3})
	scene := model.NewScene(model.NewModel(mesh, "broken"))

	_, err := UploadScene(up, scene, nil)
	assert.Error(t, err)
	assert.Empty(t, up.uploads, "validation happens before anything reaches the device")
}

func TestUploadSceneRejectsEmptyScene(t *testing.T) {
	_, err := UploadScene(&fakeUploader{}, model.NewScene(), nil)
	assert.ErrorIs(t, err, model.ErrEmptyScene)
}

func TestUploadFailureReleasesPartialUpload(t *testing.T) {
	for failAt := 1; failAt <= 3; failAt++ {
		up := &fakeUploader{failAt: failAt}
		scene := model.NewScene(model.NewCubeModel("cube"), model.NewCubeModel("cube2"))

		_, err := UploadScene(up, scene, nil)
		assert.Error(t, err)
		assert.Equal(t, 0, up.live, "upload failing at buffer %d leaked buffers", failAt)
	}
}

func TestIndexedTriangleUploadsAndDrawsOnce(t *testing.T) {
	up := &fakeUploader{}
	tri := model.NewTriangleModel("tri").Mesh.Vertices
	mesh := vm.NewMesh(tri, []uint32{0, 1, 2})
	models, err := UploadScene(up, model.NewScene(model.NewModel(mesh, "indexed tri")), nil)
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, uint32(3), m.VertexCount)
	assert.Equal(t, uint32(3), m.IndexCount)
	assert.Equal(t, vk.DeviceSize(3*vm.VertexStride), m.VertexBuffer.Size)
	assert.Equal(t, vk.DeviceSize(3*4), m.IndexBuffer.Size)

	rec := &fakeRecorder{}
	fr := NewFrameRenderer(&fakeSubmitter{}, [4]float32{0, 0, 0, 1})
	require.NoError(t, fr.Record(rec, testTarget(640, 480), vm.DefaultOrbitCamera().At(0, 4.0/3.0), []DrawCommand{
		{Pipeline: testPipeline(), Model: m, Bindings: testBindings()},
	}))

	var indexed, plain int
	for _, c := range rec.calls {
		switch {
		case c == "DrawIndexed(3,1,0,0,0)":
			indexed++
		case strings.HasPrefix(c, "Draw("), strings.HasPrefix(c, "DrawIndexed("):
			plain++
		}
	}
	assert.Equal(t, 1, indexed)
	assert.Equal(t, 0, plain, "no other draw may be recorded")
}
