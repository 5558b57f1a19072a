package common

import (
	vk "github.com/goki/vulkan"
)

// Utility functions providing slightly altered versions of the raw go bindings and wrapped functions. These altered
// versions of common functions should only hide very obvious default values that will not need to change most of the
// time. Names are prefixed with VKS which stands for (V)ul(K)an (S)implified.

// VKSAllocateCommandBuffers allocates CommandBufferCount buffers as requested by pAllocateInfo.
func VKSAllocateCommandBuffers(device vk.Device, pAllocateInfo *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, pAllocateInfo.CommandBufferCount)
	if err := vk.Error(vk.AllocateCommandBuffers(device, pAllocateInfo, buffers)); err != nil {
		return nil, err
	}
	return buffers, nil
}

// VKSAllocatePrimaryCommandBuffer allocates a single primary command buffer from cmdPool.
func VKSAllocatePrimaryCommandBuffer(device vk.Device, cmdPool vk.CommandPool) (vk.CommandBuffer, error) {
	buffers, err := VKSAllocateCommandBuffers(device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cmdPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, err
	}
	return buffers[0], nil
}

// VKSCreateCommandPool only takes the two interesting values of vk.CommandPoolCreateInfo.
func VKSCreateCommandPool(device vk.Device, flags vk.CommandPoolCreateFlags, queueFamilyIndex uint32) (vk.CommandPool, error) {
	return VkCreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            flags,
		QueueFamilyIndex: queueFamilyIndex,
	}, nil)
}

// VKSBeginOneTimeCommands allocates a primary command buffer and begins it for a single submission.
func VKSBeginOneTimeCommands(device vk.Device, cmdPool vk.CommandPool) (vk.CommandBuffer, error) {
	cmd, err := VKSAllocatePrimaryCommandBuffer(device, cmdPool)
	if err != nil {
		return nil, err
	}
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err = vk.Error(vk.BeginCommandBuffer(cmd, beginInfo)); err != nil {
		vk.FreeCommandBuffers(device, cmdPool, 1, []vk.CommandBuffer{cmd})
		return nil, err
	}
	return cmd, nil
}

// VKSEndOneTimeCommands ends cmd, submits it to queue, waits for the queue to drain and frees cmd.
func VKSEndOneTimeCommands(device vk.Device, cmdPool vk.CommandPool, queue vk.Queue, cmd vk.CommandBuffer) error {
	defer vk.FreeCommandBuffers(device, cmdPool, 1, []vk.CommandBuffer{cmd})
	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return err
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	if err := vk.Error(vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, nil)); err != nil {
		return err
	}
	return vk.Error(vk.QueueWaitIdle(queue))
}

// VKSCreateFence creates a fence, optionally already signaled.
func VKSCreateFence(device vk.Device, signaled bool) (vk.Fence, error) {
	info := &vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	return VkCreateFence(device, info, nil)
}

func VKSCreateSemaphore(device vk.Device) (vk.Semaphore, error) {
	return VkCreateSemaphore(device, &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}, nil)
}

// VKSCreateShaderModule wraps SPIR-V words into a shader module.
func VKSCreateShaderModule(device vk.Device, code []uint32) (vk.ShaderModule, error) {
	return VkCreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}, nil)
}
