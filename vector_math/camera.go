package vector_math

import (
	"github.com/chewxy/math32"
	lin "github.com/xlab/linmath"
)

// CameraState is the per-frame camera. It is derived from elapsed time and never stored between frames.
type CameraState struct {
	Position Vec3
	View     lin.Mat4x4
	Proj     lin.Mat4x4
}

// OrbitCamera circles the origin on the XZ-plane at a fixed height while looking at the origin with +Y up.
type OrbitCamera struct {
	Omega  float32 // angular speed in rad/s
	Radius float32
	Height float32

	// Projection matrix precursors
	FovY float32 // degree
	Near float32
	Far  float32
}

func DefaultOrbitCamera() OrbitCamera {
	return OrbitCamera{
		Omega:  0.5,
		Radius: 3,
		Height: 1,
		FovY:   60,
		Near:   0.1,
		Far:    100,
	}
}

// Position returns (R*sin(w*t), H, R*cos(w*t)) for t seconds of elapsed time.
func (c OrbitCamera) Position(t float32) Vec3 {
	angle := c.Omega * t
	return Vec3{
		X: c.Radius * math32.Sin(angle),
		Y: c.Height,
		Z: c.Radius * math32.Cos(angle),
	}
}

// At computes the full camera for t seconds of elapsed time and the aspect ratio of the current target.
func (c OrbitCamera) At(t float32, aspect float32) CameraState {
	pos := c.Position(t)
	eye := pos.Lin()
	origin := lin.Vec3{0, 0, 0}
	up := lin.Vec3{0, 1, 0}

	state := CameraState{Position: pos}
	state.View.LookAt(&eye, &origin, &up)
	state.Proj = NewVkPerspective(ToRad(c.FovY), aspect, c.Near, c.Far)
	return state
}

// NewVkPerspective builds a right handed perspective projection and corrects it for Vulkan's clip space
// (Y pointing down, depth in [0, 1]).
func NewVkPerspective(fovy float32, aspect float32, near float32, far float32) lin.Mat4x4 {
	var proj, res lin.Mat4x4
	proj.Perspective(fovy, aspect, near, far)
	clip := VulkanClip()
	res.Mult(&clip, &proj)
	return res
}

// VulkanClip maps OpenGL style clip coordinates onto Vulkan's: y is negated and z is moved from [-w, w]
// to [0, w]. Column major like all lin.Mat4x4 values.
func VulkanClip() lin.Mat4x4 {
	return lin.Mat4x4{
		{1, 0, 0, 0},
		{0, -1, 0, 0},
		{0, 0, 0.5, 0},
		{0, 0, 0.5, 1},
	}
}

// TransformPoint applies m to the point p (w = 1) and returns the resulting xyz and w components.
func TransformPoint(m *lin.Mat4x4, p Vec3) (Vec3, float32) {
	in := [4]float32{p.X, p.Y, p.Z, 1}
	var out [4]float32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row] += m[col][row] * in[col]
		}
	}
	return Vec3{X: out[0], Y: out[1], Z: out[2]}, out[3]
}
