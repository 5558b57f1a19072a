package shaders

import (
	"errors"
	"fmt"
)

// SPIR-V opcodes, decorations and storage classes read by the reflection below.
const (
	opTypeInt        = 21
	opTypeFloat      = 22
	opTypeVector     = 23
	opTypeMatrix     = 24
	opTypeArray      = 28
	opTypeStruct     = 30
	opTypePointer    = 32
	opConstant       = 43
	opVariable       = 59
	opDecorate       = 71
	opMemberDecorate = 72

	decorationRowMajor     = 4
	decorationArrayStride  = 6
	decorationMatrixStride = 7
	decorationOffset       = 35

	storageClassPushConstant = 9

	headerWords = 5
)

var ErrNoPushConstants = errors.New("module declares no push constant block")

type spirvType struct {
	op    uint32
	words []uint32 // operands after the result id
}

type memberLayout struct {
	offset       uint32
	hasOffset    bool
	matrixStride uint32
	rowMajor     bool
}

type spirvModule struct {
	types        map[uint32]spirvType
	constants    map[uint32]uint32
	arrayStrides map[uint32]uint32
	members      map[uint32]map[uint32]*memberLayout
	pushVars     []uint32 // pointer types of push constant variables
}

// PushConstantBlockSize reads the size in Byte of the push constant block declared by a SPIR-V module: the
// highest member offset plus that member's size, as laid out by the Offset, MatrixStride and ArrayStride
// decorations. A module without a push constant variable yields ErrNoPushConstants.
func PushConstantBlockSize(code []uint32) (uint32, error) {
	m, err := parseModule(code)
	if err != nil {
		return 0, err
	}
	if len(m.pushVars) == 0 {
		return 0, ErrNoPushConstants
	}
	if len(m.pushVars) > 1 {
		return 0, fmt.Errorf("%d push constant variables, only one block per stage is allowed", len(m.pushVars))
	}
	ptr, ok := m.types[m.pushVars[0]]
	if !ok || ptr.op != opTypePointer || len(ptr.words) < 2 {
		return 0, fmt.Errorf("push constant variable has no pointer type")
	}
	return m.sizeOf(ptr.words[1], nil, 0)
}

func parseModule(code []uint32) (*spirvModule, error) {
	if len(code) < headerWords || code[0] != spirvMagic {
		return nil, fmt.Errorf("%w: missing header", ErrNotSPIRV)
	}
	m := &spirvModule{
		types:        map[uint32]spirvType{},
		constants:    map[uint32]uint32{},
		arrayStrides: map[uint32]uint32{},
		members:      map[uint32]map[uint32]*memberLayout{},
	}
	for i := headerWords; i < len(code); {
		cnt := int(code[i] >> 16)
		op := code[i] & 0xffff
		if cnt == 0 || i+cnt > len(code) {
			return nil, fmt.Errorf("%w: instruction at word %d overruns the module", ErrNotSPIRV, i)
		}
		args := code[i+1 : i+cnt]
		i += cnt

		switch op {
		case opTypeInt, opTypeFloat, opTypeVector, opTypeMatrix, opTypeArray, opTypeStruct, opTypePointer:
			if len(args) < 1 {
				return nil, fmt.Errorf("%w: type without result id", ErrNotSPIRV)
			}
			m.types[args[0]] = spirvType{op: op, words: args[1:]}
		case opConstant:
			if len(args) >= 3 {
				m.constants[args[1]] = args[2]
			}
		case opVariable:
			if len(args) >= 3 && args[2] == storageClassPushConstant {
				m.pushVars = append(m.pushVars, args[0])
			}
		case opDecorate:
			if len(args) >= 3 && args[1] == decorationArrayStride {
				m.arrayStrides[args[0]] = args[2]
			}
		case opMemberDecorate:
			if len(args) < 3 {
				continue
			}
			l := m.member(args[0], args[1])
			switch args[2] {
			case decorationOffset:
				if len(args) >= 4 {
					l.offset, l.hasOffset = args[3], true
				}
			case decorationMatrixStride:
				if len(args) >= 4 {
					l.matrixStride = args[3]
				}
			case decorationRowMajor:
				l.rowMajor = true
			}
		}
	}
	return m, nil
}

func (m *spirvModule) member(structID, idx uint32) *memberLayout {
	ms, ok := m.members[structID]
	if !ok {
		ms = map[uint32]*memberLayout{}
		m.members[structID] = ms
	}
	l, ok := ms[idx]
	if !ok {
		l = &memberLayout{}
		ms[idx] = l
	}
	return l
}

var operandCount = map[uint32]int{
	opTypeInt:    1,
	opTypeFloat:  1,
	opTypeVector: 2,
	opTypeMatrix: 2,
	opTypeArray:  2,
}

// maxTypeDepth guards against self referencing types in broken modules.
const maxTypeDepth = 16

// sizeOf returns the size of type id. layout carries the decorations of the struct member holding it, which
// matrices need for their stride.
func (m *spirvModule) sizeOf(id uint32, layout *memberLayout, depth int) (uint32, error) {
	if depth > maxTypeDepth {
		return 0, fmt.Errorf("type %%%d nests deeper than %d", id, maxTypeDepth)
	}
	t, ok := m.types[id]
	if !ok {
		return 0, fmt.Errorf("unknown type %%%d", id)
	}
	if want := operandCount[t.op]; len(t.words) < want {
		return 0, fmt.Errorf("%w: type %%%d has %d operands, want %d", ErrNotSPIRV, id, len(t.words), want)
	}
	switch t.op {
	case opTypeInt, opTypeFloat:
		return t.words[0] / 8, nil
	case opTypeVector:
		comp, err := m.sizeOf(t.words[0], nil, depth+1)
		return comp * t.words[1], err
	case opTypeMatrix:
		col, ok := m.types[t.words[0]]
		if !ok || col.op != opTypeVector || len(col.words) < 2 {
			return 0, fmt.Errorf("matrix %%%d has no vector columns", id)
		}
		if layout == nil || layout.matrixStride == 0 {
			return 0, fmt.Errorf("matrix %%%d has no MatrixStride decoration", id)
		}
		if layout.rowMajor {
			return layout.matrixStride * col.words[1], nil
		}
		return layout.matrixStride * t.words[1], nil
	case opTypeArray:
		length, ok := m.constants[t.words[1]]
		if !ok {
			return 0, fmt.Errorf("array %%%d has no constant length", id)
		}
		stride, ok := m.arrayStrides[id]
		if !ok {
			return 0, fmt.Errorf("array %%%d has no ArrayStride decoration", id)
		}
		return length * stride, nil
	case opTypeStruct:
		var size uint32
		for i, memberType := range t.words {
			l := m.members[id][uint32(i)]
			if l == nil || !l.hasOffset {
				return 0, fmt.Errorf("member %d of struct %%%d has no Offset decoration", i, id)
			}
			s, err := m.sizeOf(memberType, l, depth+1)
			if err != nil {
				return 0, err
			}
			size = max(size, l.offset+s)
		}
		return size, nil
	}
	return 0, fmt.Errorf("type %%%d with opcode %d can not be part of a push constant block", id, t.op)
}
