package common

import (
	"errors"
	"log"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/veandco/go-sdl2/sdl"
)

// Utility functions wrapping the raw go bindings to provide a more go-lang style interface. These should not
// hide or alter behavior and only allow for tidier core code by tweaking signatures.

// create runs a vkCreate*-style call writing into out and turns its result code into an error.
func create[T any](call func(out *T) vk.Result) (T, error) {
	var out T
	if err := vk.Error(call(&out)); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func VkCreateInstance(pCreateInfo *vk.InstanceCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Instance, error) {
	in, err := create(func(out *vk.Instance) vk.Result {
		return vk.CreateInstance(pCreateInfo, pAllocator, out)
	})
	if err != nil {
		return nil, err
	}
	if err = vk.InitInstance(in); err != nil {
		return nil, err
	}
	return in, nil
}

func SdlCreateVkSurface(win *sdl.Window, instance vk.Instance) (vk.Surface, error) {
	surfPtr, err := win.VulkanCreateSurface(instance)
	if err != nil {
		return nil, err
	}
	return vk.SurfaceFromPointer(uintptr(surfPtr)), nil
}

func VkCreateDevice(physicalDevice vk.PhysicalDevice, pCreateInfo *vk.DeviceCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Device, error) {
	return create(func(out *vk.Device) vk.Result {
		return vk.CreateDevice(physicalDevice, pCreateInfo, pAllocator, out)
	})
}

func VkGetDeviceQueue(device vk.Device, queueFamilyIndex *uint32, queueIndex uint32) (vk.Queue, error) {
	if queueFamilyIndex == nil {
		return nil, errors.New("QueueFamily index was nil")
	}
	var q vk.Queue
	vk.GetDeviceQueue(device, *queueFamilyIndex, queueIndex, &q)
	return q, nil
}

func VkCreateSwapChain(device vk.Device, pCreateInfo *vk.SwapchainCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Swapchain, error) {
	return create(func(out *vk.Swapchain) vk.Result {
		return vk.CreateSwapchain(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateImageView(device vk.Device, pCreateInfo *vk.ImageViewCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.ImageView, error) {
	return create(func(out *vk.ImageView) vk.Result {
		return vk.CreateImageView(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateRenderPass(device vk.Device, pCreateInfo *vk.RenderPassCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.RenderPass, error) {
	return create(func(out *vk.RenderPass) vk.Result {
		return vk.CreateRenderPass(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateFrameBuffer(device vk.Device, pCreateInfo *vk.FramebufferCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Framebuffer, error) {
	return create(func(out *vk.Framebuffer) vk.Result {
		return vk.CreateFramebuffer(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreatePipelineLayout(device vk.Device, pCreateInfo *vk.PipelineLayoutCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.PipelineLayout, error) {
	return create(func(out *vk.PipelineLayout) vk.Result {
		return vk.CreatePipelineLayout(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateGraphicsPipelines(device vk.Device, pipelineCache vk.PipelineCache, createInfoCount uint32, pCreateInfos []vk.GraphicsPipelineCreateInfo, pAllocator *vk.AllocationCallbacks) ([]vk.Pipeline, error) {
	gp := make([]vk.Pipeline, createInfoCount)
	if err := vk.Error(vk.CreateGraphicsPipelines(device, pipelineCache, createInfoCount, pCreateInfos, pAllocator, gp)); err != nil {
		return nil, err
	}
	return gp, nil
}

func VkCreateCommandPool(device vk.Device, pCreateInfo *vk.CommandPoolCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.CommandPool, error) {
	cp, err := create(func(out *vk.CommandPool) vk.Result {
		return vk.CreateCommandPool(device, pCreateInfo, pAllocator, out)
	})
	if err == nil {
		log.Printf("Successfully created command pool")
	}
	return cp, err
}

func VkCreateBuffer(device vk.Device, pCreateInfo *vk.BufferCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Buffer, error) {
	return create(func(out *vk.Buffer) vk.Result {
		return vk.CreateBuffer(device, pCreateInfo, pAllocator, out)
	})
}

func VkAllocateMemory(device vk.Device, pAllocateInfo *vk.MemoryAllocateInfo, pAllocator *vk.AllocationCallbacks) (vk.DeviceMemory, error) {
	return create(func(out *vk.DeviceMemory) vk.Result {
		return vk.AllocateMemory(device, pAllocateInfo, pAllocator, out)
	})
}

func VkBindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, memoryOffset vk.DeviceSize) error {
	return vk.Error(vk.BindBufferMemory(device, buffer, memory, memoryOffset))
}

func VkBindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory, memoryOffset vk.DeviceSize) error {
	return vk.Error(vk.BindImageMemory(device, image, memory, memoryOffset))
}

func VkMapMemory(device vk.Device, memory vk.DeviceMemory, offset vk.DeviceSize, size vk.DeviceSize, flags vk.MemoryMapFlags) (unsafe.Pointer, error) {
	return create(func(out *unsafe.Pointer) vk.Result {
		return vk.MapMemory(device, memory, offset, size, flags, out)
	})
}

func VkCreateImage(device vk.Device, pCreateInfo *vk.ImageCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Image, error) {
	return create(func(out *vk.Image) vk.Result {
		return vk.CreateImage(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateFence(device vk.Device, pCreateInfo *vk.FenceCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Fence, error) {
	return create(func(out *vk.Fence) vk.Result {
		return vk.CreateFence(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateSemaphore(device vk.Device, pCreateInfo *vk.SemaphoreCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Semaphore, error) {
	return create(func(out *vk.Semaphore) vk.Result {
		return vk.CreateSemaphore(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateDescriptorSetLayout(device vk.Device, pCreateInfo *vk.DescriptorSetLayoutCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.DescriptorSetLayout, error) {
	return create(func(out *vk.DescriptorSetLayout) vk.Result {
		return vk.CreateDescriptorSetLayout(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateDescriptorPool(device vk.Device, pCreateInfo *vk.DescriptorPoolCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.DescriptorPool, error) {
	return create(func(out *vk.DescriptorPool) vk.Result {
		return vk.CreateDescriptorPool(device, pCreateInfo, pAllocator, out)
	})
}

func VkCreateShaderModule(device vk.Device, pCreateInfo *vk.ShaderModuleCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.ShaderModule, error) {
	return create(func(out *vk.ShaderModule) vk.Result {
		return vk.CreateShaderModule(device, pCreateInfo, pAllocator, out)
	})
}
