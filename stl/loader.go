// Package stl reads binary STL files into meshes.
package stl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"os"

	vm "rt_renderer/vector_math"
)

const (
	headerSize  = 80
	countSize   = 4
	stride      = 50
	minFileSize = headerSize + countSize
)

var ErrMalformed = errors.New("malformed binary stl data")

func ReadStlFile(path string) (*vm.Mesh, error) {
	log.Printf("Reading stl file %s", path)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stl file: %w", err)
	}
	mesh, err := ParseStl(b)
	if err != nil {
		return nil, fmt.Errorf("stl file '%s': %w", path, err)
	}
	return mesh, nil
}

// ParseStl converts binary STL data into a mesh with three vertices per triangle. Facet normals of zero length
// are recomputed from the counter-clockwise winding.
func ParseStl(b []byte) (*vm.Mesh, error) {
	if len(b) < minFileSize {
		return nil, fmt.Errorf("%w: %d Byte is shorter than the header", ErrMalformed, len(b))
	}
	header := b[:headerSize]
	tCnt := binary.LittleEndian.Uint32(b[headerSize:minFileSize])
	body := b[minFileSize:]
	if uint64(len(body)) != uint64(tCnt)*stride {
		return nil, fmt.Errorf("%w: header announces %d triangles, body holds %d Byte", ErrMalformed, tCnt, len(body))
	}
	if tCnt == 0 {
		return nil, fmt.Errorf("%w: no triangles", ErrMalformed)
	}
	log.Printf("Successfully read stl file, Header: '%s', Triangle Count: %d, Triangle memory size: %d KiB", trimHeader(header), tCnt, len(body)/1024)
	return toMesh(body, tCnt), nil
}

func toMesh(bytes []byte, triangleCnt uint32) *vm.Mesh {
	v := make([]vm.Vertex, 0, triangleCnt*3)
	id := make([]uint32, 0, triangleCnt*3)

	for i := 0; i < len(bytes); i += stride {
		normal := toVec3(bytes[i : i+12])
		corners := [3]vm.Vec3{
			toVec3(bytes[i+12 : i+24]),
			toVec3(bytes[i+24 : i+36]),
			toVec3(bytes[i+36 : i+48]),
		}
		// attribute byte count bytes[i+48:i+50] is unused
		if normal.Len() == 0 {
			normal = corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0])).Norm()
		}
		for _, c := range corners {
			id = append(id, uint32(len(v)))
			v = append(v, vm.Vertex{Position: c, Normal: normal})
		}
	}
	return vm.NewMesh(v, id)
}

func trimHeader(h []byte) string {
	end := len(h)
	for end > 0 && (h[end-1] == 0 || h[end-1] == ' ') {
		end--
	}
	return string(h[:end])
}

func toVec3(bytes []byte) vm.Vec3 {
	return vm.Vec3{
		X: toFloat32(bytes[:4]),
		Y: toFloat32(bytes[4:8]),
		Z: toFloat32(bytes[8:12]),
	}
}

func toFloat32(bytes []byte) float32 {
	bits := binary.LittleEndian.Uint32(bytes)
	return math.Float32frombits(bits)
}
