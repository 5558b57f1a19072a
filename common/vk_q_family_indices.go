package common

import (
	"errors"
	"log"

	vk "github.com/goki/vulkan"
)

type QueueFamilyIndices struct {
	GraphicsFamily *uint32
	PresentFamily  *uint32
}

func findQueueFamilies(pd vk.PhysicalDevice, surf vk.Surface) (*QueueFamilyIndices, error) {
	return pickQueueFamilies(ReadQueueFamilies(pd), func(i uint32) bool {
		var presentSupport vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(pd, i, surf, &presentSupport)
		return presentSupport == vk.True
	})
}

// pickQueueFamilies takes the first graphics capable family and the first family able to present. A family
// doing both is preferred so that graphics and present share a queue.
func pickQueueFamilies(families []vk.QueueFamilyProperties, canPresent func(uint32) bool) (*QueueFamilyIndices, error) {
	indices := &QueueFamilyIndices{}
	for i := range families {
		idx := uint32(i)
		graphics := vk.QueueFlagBits(families[i].QueueFlags)&vk.QueueGraphicsBit != 0
		present := canPresent(idx)
		if graphics && present {
			indices.GraphicsFamily, indices.PresentFamily = &idx, &idx
			return indices, nil
		}
		if graphics && indices.GraphicsFamily == nil {
			indices.GraphicsFamily = &idx
		}
		if present && indices.PresentFamily == nil {
			indices.PresentFamily = &idx
		}
	}
	if indices.GraphicsFamily == nil {
		return nil, errors.New("unable to find graphics capable queue family")
	}
	if indices.PresentFamily == nil {
		return nil, errors.New("unable to find present capable queue family for given surface")
	}
	return indices, nil
}

func (q *QueueFamilyIndices) isAllQueuesFound() bool {
	return q.GraphicsFamily != nil && q.PresentFamily != nil
}

func (q *QueueFamilyIndices) toQueueCreateInfos() []vk.DeviceQueueCreateInfo {
	if !q.isAllQueuesFound() {
		log.Panicf("Failed to access graphics and present capable queue family indices")
	}
	uniqIndices := []uint32{*q.GraphicsFamily}
	if *q.PresentFamily != *q.GraphicsFamily {
		uniqIndices = append(uniqIndices, *q.PresentFamily)
	}
	infos := make([]vk.DeviceQueueCreateInfo, len(uniqIndices))
	for i := range uniqIndices {
		infos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uniqIndices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}
	return infos
}
