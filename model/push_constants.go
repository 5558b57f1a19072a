package model

import (
	"unsafe"

	"rt_renderer/common"
	vm "rt_renderer/vector_math"

	lin "github.com/xlab/linmath"
)

// PushConstants is pushed once per draw and shared by the vertex and fragment stage. The layout is
// {mat4 view; mat4 proj; vec3 camera_pos;} which takes 140 Byte.
type PushConstants struct {
	View      lin.Mat4x4
	Proj      lin.Mat4x4
	CameraPos [3]float32
}

const PushConstantsSize = 140

func NewPushConstants(cam vm.CameraState) PushConstants {
	return PushConstants{
		View:      cam.View,
		Proj:      cam.Proj,
		CameraPos: [3]float32{cam.Position.X, cam.Position.Y, cam.Position.Z},
	}
}

func (p *PushConstants) Bytes() []byte {
	return common.RawBytes(p)
}

// Pointer hands the struct to vk.CmdPushConstants. The Go layout has no padding so it matches Bytes().
func (p *PushConstants) Pointer() unsafe.Pointer {
	return unsafe.Pointer(p)
}
