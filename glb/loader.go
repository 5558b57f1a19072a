// Package glb reads glTF 2.0 documents (.gltf and .glb) into models. Node transforms of the default scene are
// baked into the vertex data so every model shares the scene's single model matrix.
package glb

import (
	"errors"
	"fmt"
	"log"

	"rt_renderer/model"
	vm "rt_renderer/vector_math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	lin "github.com/xlab/linmath"
)

var (
	ErrNoGeometry  = errors.New("gltf document contains no triangle geometry")
	ErrNoPositions = errors.New("primitive has no POSITION attribute")
)

func ReadFile(path string) ([]*model.Model, error) {
	log.Printf("Reading gltf file %s", path)
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf file: %w", err)
	}
	models, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf file '%s': %w", path, err)
	}
	return models, nil
}

// FromDocument converts every triangle primitive reachable from the default scene into one model. Documents
// without scenes are read mesh by mesh with identity transforms.
func FromDocument(doc *gltf.Document) ([]*model.Model, error) {
	var models []*model.Model
	visit := func(meshIdx int, world *lin.Mat4x4) error {
		if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
			return fmt.Errorf("mesh index %d out of range", meshIdx)
		}
		mesh := doc.Meshes[meshIdx]
		for i, p := range mesh.Primitives {
			if p.Mode != gltf.PrimitiveTriangles {
				log.Printf("Skipping primitive %d of mesh '%s', mode %v is not a triangle list", i, mesh.Name, p.Mode)
				continue
			}
			m, err := readPrimitive(doc, p, world)
			if err != nil {
				return fmt.Errorf("mesh '%s' primitive %d: %w", mesh.Name, i, err)
			}
			models = append(models, model.NewModel(m, primitiveName(mesh.Name, meshIdx, i, len(mesh.Primitives))))
		}
		return nil
	}

	var identity lin.Mat4x4
	identity.Identity()
	if roots, ok := sceneRoots(doc); ok {
		for _, n := range roots {
			if err := walkNode(doc, n, &identity, visit, 0); err != nil {
				return nil, err
			}
		}
	} else {
		for i := range doc.Meshes {
			if err := visit(i, &identity); err != nil {
				return nil, err
			}
		}
	}

	if len(models) == 0 {
		return nil, ErrNoGeometry
	}
	log.Printf("Read %d models from gltf document", len(models))
	return models, nil
}

func sceneRoots(doc *gltf.Document) ([]int, bool) {
	if len(doc.Scenes) == 0 {
		return nil, false
	}
	idx := 0
	if doc.Scene != nil {
		idx = *doc.Scene
	}
	if idx < 0 || idx >= len(doc.Scenes) {
		return nil, false
	}
	return doc.Scenes[idx].Nodes, true
}

// maxNodeDepth guards against cyclic node graphs in broken files.
const maxNodeDepth = 64

func walkNode(doc *gltf.Document, idx int, parent *lin.Mat4x4, visit func(int, *lin.Mat4x4) error, depth int) error {
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	node := doc.Nodes[idx]
	local := localTransform(node)
	var world lin.Mat4x4
	world.Mult(parent, &local)

	if node.Mesh != nil {
		if err := visit(*node.Mesh, &world); err != nil {
			return err
		}
	}
	for _, c := range node.Children {
		if err := walkNode(doc, c, &world, visit, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// localTransform returns the node matrix, either given directly or composed as T * R * S.
func localTransform(n *gltf.Node) lin.Mat4x4 {
	var m lin.Mat4x4
	if mat := n.MatrixOrDefault(); mat != gltf.DefaultMatrix {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				m[c][r] = float32(mat[c*4+r])
			}
		}
		return m
	}

	t := n.TranslationOrDefault()
	q := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	x, y, z, w := float32(q[0]), float32(q[1]), float32(q[2]), float32(q[3])

	// rotation columns scaled per axis
	m[0] = lin.Vec4{(1 - 2*(y*y+z*z)) * float32(s[0]), 2 * (x*y + z*w) * float32(s[0]), 2 * (x*z - y*w) * float32(s[0]), 0}
	m[1] = lin.Vec4{2 * (x*y - z*w) * float32(s[1]), (1 - 2*(x*x+z*z)) * float32(s[1]), 2 * (y*z + x*w) * float32(s[1]), 0}
	m[2] = lin.Vec4{2 * (x*z + y*w) * float32(s[2]), 2 * (y*z - x*w) * float32(s[2]), (1 - 2*(x*x+y*y)) * float32(s[2]), 0}
	m[3] = lin.Vec4{float32(t[0]), float32(t[1]), float32(t[2]), 1}
	return m
}

func readPrimitive(doc *gltf.Document, p *gltf.Primitive, world *lin.Mat4x4) (*vm.Mesh, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, ErrNoPositions
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		if acr, err = accessor(doc, idx); err != nil {
			return nil, err
		}
		if normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = accessor(doc, idx); err != nil {
			return nil, err
		}
		if uvs, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read texture coordinates: %w", err)
		}
	}
	var indices []uint32
	if p.Indices != nil {
		if acr, err = accessor(doc, *p.Indices); err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	}

	normalMat := normalMatrix(world)
	v := make([]vm.Vertex, len(positions))
	for i, pos := range positions {
		wp, _ := vm.TransformPoint(world, vm.Vec3{X: pos[0], Y: pos[1], Z: pos[2]})
		v[i].Position = wp
		if i < len(normals) {
			v[i].Normal = transformDir(&normalMat, vm.Vec3{X: normals[i][0], Y: normals[i][1], Z: normals[i][2]}).Norm()
		}
		if i < len(uvs) {
			v[i].TexCoord = vm.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
	}

	mesh := vm.NewMesh(v, indices)
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	if mirrors(world) {
		flipWinding(mesh)
	}
	if len(normals) == 0 {
		smoothNormals(mesh)
	}
	return mesh, nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

// mirrors reports whether m has a negative determinant, which turns counter-clockwise triangles clockwise.
func mirrors(m *lin.Mat4x4) bool {
	det := m[0][0]*(m[1][1]*m[2][2]-m[2][1]*m[1][2]) -
		m[1][0]*(m[0][1]*m[2][2]-m[2][1]*m[0][2]) +
		m[2][0]*(m[0][1]*m[1][2]-m[1][1]*m[0][2])
	return det < 0
}

// flipWinding swaps the last two corners of every triangle.
func flipWinding(m *vm.Mesh) {
	if m.IsIndexed() {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			m.Indices[i+1], m.Indices[i+2] = m.Indices[i+2], m.Indices[i+1]
		}
		return
	}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		m.Vertices[i+1], m.Vertices[i+2] = m.Vertices[i+2], m.Vertices[i+1]
	}
}

// normalMatrix is the inverse transpose of the world matrix.
func normalMatrix(world *lin.Mat4x4) lin.Mat4x4 {
	var inv, res lin.Mat4x4
	inv.Invert(world)
	res.Transpose(&inv)
	return res
}

func transformDir(m *lin.Mat4x4, d vm.Vec3) vm.Vec3 {
	return vm.Vec3{
		X: m[0][0]*d.X + m[1][0]*d.Y + m[2][0]*d.Z,
		Y: m[0][1]*d.X + m[1][1]*d.Y + m[2][1]*d.Z,
		Z: m[0][2]*d.X + m[1][2]*d.Y + m[2][2]*d.Z,
	}
}

// smoothNormals assigns each vertex the normalized sum of the face normals of its triangles.
func smoothNormals(m *vm.Mesh) {
	corner := func(i int) uint32 {
		if m.IsIndexed() {
			return m.Indices[i]
		}
		return uint32(i)
	}
	cnt := len(m.Vertices)
	if m.IsIndexed() {
		cnt = len(m.Indices)
	}
	for i := 0; i+2 < cnt; i += 3 {
		a, b, c := corner(i), corner(i+1), corner(i+2)
		pa, pb, pc := m.Vertices[a].Position, m.Vertices[b].Position, m.Vertices[c].Position
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		m.Vertices[a].Normal = m.Vertices[a].Normal.Add(n)
		m.Vertices[b].Normal = m.Vertices[b].Normal.Add(n)
		m.Vertices[c].Normal = m.Vertices[c].Normal.Add(n)
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Norm()
	}
}

func primitiveName(mesh string, meshIdx, primIdx, primCnt int) string {
	if mesh == "" {
		mesh = fmt.Sprintf("mesh%d", meshIdx)
	}
	if primCnt == 1 {
		return mesh
	}
	return fmt.Sprintf("%s.%d", mesh, primIdx)
}
