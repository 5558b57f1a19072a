package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameSlotCountFromSettings(t *testing.T) {
	assert.Equal(t, DEFAULT_FRAMES_IN_FLIGHT, Settings{}.framesInFlight())
	assert.Equal(t, 1, Settings{FramesInFlight: 1}.framesInFlight())
	assert.Equal(t, 5, Settings{FramesInFlight: 5}.framesInFlight())
}

func TestSlotRotationVisitsEverySlot(t *testing.T) {
	for _, slots := range []int{1, 2, 3} {
		idx, seen := 0, map[int]bool{}
		for i := 0; i < slots*2; i++ {
			seen[idx] = true
			idx = nextSlot(idx, slots)
			assert.Less(t, idx, slots)
		}
		assert.Len(t, seen, slots)
		assert.Equal(t, 0, idx, "%d slots come back to the first after two rounds", slots)
	}
}
