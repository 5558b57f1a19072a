package shaders

import (
	"testing"

	"rt_renderer/shaders/spirvtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushConstantBlockSize(t *testing.T) {
	cases := map[string]struct {
		members []spirvtest.Member
		want    uint32
	}{
		"scene block":          {[]spirvtest.Member{spirvtest.Mat4, spirvtest.Mat4, spirvtest.Vec3}, 140},
		"matrices only":        {[]spirvtest.Member{spirvtest.Mat4, spirvtest.Mat4}, 128},
		"float packed in vec3": {[]spirvtest.Member{spirvtest.Vec3, spirvtest.Float}, 16},
		"vec4 after float":     {[]spirvtest.Member{spirvtest.Float, spirvtest.Vec4}, 32},
		"single scalar":        {[]spirvtest.Member{spirvtest.Float}, 4},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			size, err := PushConstantBlockSize(spirvtest.PushBlock(c.members...))
			require.NoError(t, err)
			assert.Equal(t, c.want, size)
		})
	}
}

func TestPushConstantBlockSizeRejectsBrokenModules(t *testing.T) {
	_, err := PushConstantBlockSize([]uint32{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotSPIRV)

	header, err := DecodeSPIRV(spirvHeader())
	require.NoError(t, err)
	_, err = PushConstantBlockSize(header)
	assert.ErrorIs(t, err, ErrNoPushConstants)

	// an instruction claiming more words than the module holds
	truncated := append(append([]uint32{}, header...), 9<<16|22, 1)
	_, err = PushConstantBlockSize(truncated)
	assert.ErrorIs(t, err, ErrNotSPIRV)

	// drop the MatrixStride decorations of the scene block
	code := spirvtest.SceneBlock()
	stripped := append([]uint32{}, code[:5]...)
	for i := 5; i < len(code); {
		n := int(code[i] >> 16)
		if !(code[i]&0xffff == 72 && n == 5 && code[i+3] == 7) {
			stripped = append(stripped, code[i:i+n]...)
		}
		i += n
	}
	_, err = PushConstantBlockSize(stripped)
	assert.ErrorContains(t, err, "MatrixStride")
}
