// Package spirvtest builds minimal SPIR-V modules declaring a push constant block, for tests of code that
// reflects or validates shader interfaces.
package spirvtest

import "encoding/binary"

type Member int

const (
	Float Member = iota
	Vec3
	Vec4
	Mat4
)

const (
	idFloat = iota + 1
	idVec3
	idVec4
	idMat4
	idStruct
	idPointer
	idVariable
	idBound
)

func (m Member) typeID() uint32 {
	return [...]uint32{idFloat, idVec3, idVec4, idMat4}[m]
}

func (m Member) size() uint32 {
	return [...]uint32{4, 12, 16, 64}[m]
}

func (m Member) align() uint32 {
	if m == Float {
		return 4
	}
	return 16
}

func inst(op uint32, args ...uint32) []uint32 {
	return append([]uint32{uint32(len(args)+1)<<16 | op}, args...)
}

// PushBlock returns the words of a module with one push constant variable whose block holds members in order,
// offsets packed like GLSL std430.
func PushBlock(members ...Member) []uint32 {
	code := []uint32{0x07230203, 0x00010000, 0, idBound, 0}

	var offset uint32
	memberTypes := make([]uint32, len(members))
	for i, m := range members {
		offset = (offset + m.align() - 1) / m.align() * m.align()
		code = append(code, inst(72, idStruct, uint32(i), 35, offset)...) // Offset
		if m == Mat4 {
			code = append(code, inst(72, idStruct, uint32(i), 5)...)     // ColMajor
			code = append(code, inst(72, idStruct, uint32(i), 7, 16)...) // MatrixStride
		}
		memberTypes[i] = m.typeID()
		offset += m.size()
	}
	code = append(code, inst(71, idStruct, 2)...) // Block

	code = append(code, inst(22, idFloat, 32)...)
	code = append(code, inst(23, idVec3, idFloat, 3)...)
	code = append(code, inst(23, idVec4, idFloat, 4)...)
	code = append(code, inst(24, idMat4, idVec4, 4)...)
	code = append(code, inst(30, append([]uint32{idStruct}, memberTypes...)...)...)
	code = append(code, inst(32, idPointer, 9, idStruct)...)
	code = append(code, inst(59, idPointer, idVariable, 9)...)
	return code
}

// SceneBlock is the {view, proj, camera_pos} block of the scene shaders.
func SceneBlock() []uint32 {
	return PushBlock(Mat4, Mat4, Vec3)
}

// Bytes encodes words the way a .spv file stores them.
func Bytes(code []uint32) []byte {
	raw := make([]byte, len(code)*4)
	for i, w := range code {
		binary.LittleEndian.PutUint32(raw[i*4:], w)
	}
	return raw
}
