package vector_math

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-4

func TestOrbitPositionAtZero(t *testing.T) {
	cam := DefaultOrbitCamera()
	pos := cam.Position(0)
	assert.InDelta(t, 0, pos.X, eps)
	assert.InDelta(t, cam.Height, pos.Y, eps)
	assert.InDelta(t, cam.Radius, pos.Z, eps)
}

func TestOrbitStaysOnCircle(t *testing.T) {
	cam := OrbitCamera{Omega: 1.3, Radius: 7, Height: -2, FovY: 45, Near: 0.5, Far: 50}
	for _, elapsed := range []float32{0.1, 1, 2.5, 10, 123.4} {
		pos := cam.Position(elapsed)
		planar := math32.Sqrt(pos.X*pos.X + pos.Z*pos.Z)
		assert.InDelta(t, cam.Radius, planar, eps, "t=%v", elapsed)
		assert.Equal(t, cam.Height, pos.Y, "t=%v", elapsed)
	}
}

func TestViewMovesEyeToOrigin(t *testing.T) {
	cam := DefaultOrbitCamera()
	state := cam.At(1.7, 16.0/9.0)

	eye, w := TransformPoint(&state.View, state.Position)
	assert.InDelta(t, 0, eye.Len(), eps)
	assert.InDelta(t, 1, w, eps)

	// the orbit center ends up straight ahead, looking down -Z in view space
	center, _ := TransformPoint(&state.View, Vec3{})
	assert.InDelta(t, 0, center.X, eps)
	assert.InDelta(t, 0, center.Y, eps)
	assert.InDelta(t, -state.Position.Len(), center.Z, eps)
}

func TestPerspectiveDepthRange(t *testing.T) {
	near, far := float32(0.1), float32(100)
	proj := NewVkPerspective(ToRad(60), 1280.0/720.0, near, far)

	n, nw := TransformPoint(&proj, Vec3{Z: -near})
	assert.InDelta(t, 0, n.Z/nw, eps)
	f, fw := TransformPoint(&proj, Vec3{Z: -far})
	assert.InDelta(t, 1, f.Z/fw, eps)
}

func TestPerspectiveFlipsY(t *testing.T) {
	proj := NewVkPerspective(ToRad(60), 1, 0.1, 100)
	above, w := TransformPoint(&proj, Vec3{Y: 1, Z: -5})
	assert.Less(t, above.Y/w, float32(0), "points above the view axis end up in the upper half of Vulkan's clip space")
}

func TestAspectScalesX(t *testing.T) {
	wide := NewVkPerspective(ToRad(60), 2, 0.1, 100)
	square := NewVkPerspective(ToRad(60), 1, 0.1, 100)
	assert.InDelta(t, square[0][0]/2, wide[0][0], eps)
	assert.InDelta(t, square[1][1], wide[1][1], eps)
}
