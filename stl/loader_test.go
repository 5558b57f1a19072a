package stl

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	vm "rt_renderer/vector_math"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type facet struct {
	Normal  [3]float32
	Corners [3][3]float32
	Attr    uint16
}

func encode(t *testing.T, facets ...facet) []byte {
	t.Helper()
	var buf bytes.Buffer
	header := make([]byte, headerSize)
	copy(header, "test part")
	buf.Write(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(facets))))
	for _, f := range facets {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}
	return buf.Bytes()
}

var floorFacet = facet{
	Normal:  [3]float32{0, 1, 0},
	Corners: [3][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}},
}

func TestParseStl(t *testing.T) {
	mesh, err := ParseStl(encode(t, floorFacet, floorFacet))
	require.NoError(t, err)

	require.Len(t, mesh.Vertices, 6)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, mesh.Indices)
	assert.Equal(t, vm.Vec3{X: 0, Y: 0, Z: 1}, mesh.Vertices[1].Position)
	for _, v := range mesh.Vertices {
		assert.Equal(t, vm.Vec3{Y: 1}, v.Normal)
	}
	assert.NoError(t, mesh.Validate())
}

func TestParseStlRecomputesMissingNormals(t *testing.T) {
	f := floorFacet
	f.Normal = [3]float32{}
	mesh, err := ParseStl(encode(t, f))
	require.NoError(t, err)

	n := mesh.Vertices[0].Normal
	assert.InDelta(t, 0, n.X, 1e-6)
	assert.InDelta(t, 1, n.Y, 1e-6)
	assert.InDelta(t, 0, n.Z, 1e-6)
}

func TestParseStlRejectsMalformedData(t *testing.T) {
	_, err := ParseStl([]byte("solid ascii"))
	assert.ErrorIs(t, err, ErrMalformed)

	data := encode(t, floorFacet)
	_, err = ParseStl(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseStl(encode(t))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestReadStlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	require.NoError(t, os.WriteFile(path, encode(t, floorFacet), 0o644))

	mesh, err := ReadStlFile(path)
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices, 3)

	_, err = ReadStlFile(filepath.Join(t.TempDir(), "missing.stl"))
	assert.Error(t, err)
}
