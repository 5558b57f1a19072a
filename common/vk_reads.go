package common

import (
	"log"

	vk "github.com/goki/vulkan"
)

// Read operations that require duplicated function calls, allocations and dereferencing. They are pulled out
// to provide a more go-lang feel and tidy the core code.

// enumerate runs the two step count/fill pattern of vkEnumerate* and vkGet*s calls.
func enumerate[T any](what string, call func(count *uint32, out []T) vk.Result) []T {
	var n uint32
	if err := vk.Error(call(&n, nil)); err != nil {
		log.Panicf("Failed read number of %s: %s", what, err)
	}
	out := make([]T, n)
	if n == 0 {
		return out
	}
	if err := vk.Error(call(&n, out)); err != nil {
		log.Panicf("Failed read %d %s: %s", n, what, err)
	}
	return out[:n]
}

func extensionNames(props []vk.ExtensionProperties) []string {
	names := make([]string, len(props))
	for i := range props {
		props[i].Deref()
		names[i] = vk.ToString(props[i].ExtensionName[:])
	}
	return names
}

// ReadInstanceExtensionPropertyNames returns the names of all supported instance extensions so support checks
// become string comparisons.
func ReadInstanceExtensionPropertyNames() []string {
	return extensionNames(enumerate("InstanceExtensionProperties", func(n *uint32, out []vk.ExtensionProperties) vk.Result {
		return vk.EnumerateInstanceExtensionProperties("", n, out)
	}))
}

func ReadInstanceLayerPropertyNames() []string {
	layers := enumerate("InstanceLayerProperties", func(n *uint32, out []vk.LayerProperties) vk.Result {
		return vk.EnumerateInstanceLayerProperties(n, out)
	})
	names := make([]string, len(layers))
	for i := range layers {
		layers[i].Deref()
		names[i] = vk.ToString(layers[i].LayerName[:])
	}
	return names
}

func ReadDeviceExtensionPropertyNames(pd vk.PhysicalDevice) []string {
	return extensionNames(enumerate("DeviceExtensionProperties", func(n *uint32, out []vk.ExtensionProperties) vk.Result {
		return vk.EnumerateDeviceExtensionProperties(pd, "", n, out)
	}))
}

func ReadPhysicalDevices(instance vk.Instance) []vk.PhysicalDevice {
	devices := enumerate("PhysicalDevices", func(n *uint32, out []vk.PhysicalDevice) vk.Result {
		return vk.EnumeratePhysicalDevices(instance, n, out)
	})
	if len(devices) == 0 {
		log.Panic("There are 0 physical devices available")
	}
	return devices
}

func ReadPhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var pdProps vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &pdProps)
	pdProps.Deref()
	pdProps.Limits.Deref()
	return pdProps
}

func ReadPhysicalDeviceFeatures(pd vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	var pdFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &pdFeatures)
	pdFeatures.Deref()
	return pdFeatures
}

func ReadQueueFamilies(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	families := enumerate("QueueFamilyProperties", func(n *uint32, out []vk.QueueFamilyProperties) vk.Result {
		vk.GetPhysicalDeviceQueueFamilyProperties(pd, n, out)
		return vk.Success
	})
	for i := range families {
		families[i].Deref()
		families[i].MinImageTransferGranularity.Deref()
	}
	return families
}

func ReadDeviceMemoryProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	var pdMemProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &pdMemProps)
	pdMemProps.Deref()
	for i := range pdMemProps.MemoryTypes {
		pdMemProps.MemoryTypes[i].Deref()
	}
	for i := range pdMemProps.MemoryHeaps {
		pdMemProps.MemoryHeaps[i].Deref()
	}
	return pdMemProps
}

func ReadFormatProperties(pd vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(pd, format, &props)
	props.Deref()
	return props
}

func ReadSwapChainSupportDetails(pd vk.PhysicalDevice, surface vk.Surface) SwapChainDetails {
	details := SwapChainDetails{}
	vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &details.Capabilities)
	details.Capabilities.Deref()
	details.Capabilities.CurrentExtent.Deref()
	details.Capabilities.MinImageExtent.Deref()
	details.Capabilities.MaxImageExtent.Deref()

	details.Formats = enumerate("SurfaceFormats", func(n *uint32, out []vk.SurfaceFormat) vk.Result {
		return vk.GetPhysicalDeviceSurfaceFormats(pd, surface, n, out)
	})
	for i := range details.Formats {
		details.Formats[i].Deref()
	}
	details.PresentModes = enumerate("SurfacePresentModes", func(n *uint32, out []vk.PresentMode) vk.Result {
		return vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, n, out)
	})
	return details
}

func ReadSwapChainImages(device vk.Device, swapChain vk.Swapchain) []vk.Image {
	return enumerate("SwapchainImages", func(n *uint32, out []vk.Image) vk.Result {
		return vk.GetSwapchainImages(device, swapChain, n, out)
	})
}

func ReadBufferMemoryRequirements(device vk.Device, b vk.Buffer) vk.MemoryRequirements {
	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, b, &memRequirements)
	memRequirements.Deref()
	return memRequirements
}

func ReadImageMemoryRequirements(device vk.Device, img vk.Image) vk.MemoryRequirements {
	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, img, &memRequirements)
	memRequirements.Deref()
	return memRequirements
}
