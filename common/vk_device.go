package common

import (
	"errors"
	"log"
	"slices"

	vk "github.com/goki/vulkan"
)

var VALIDATION_LAYERS = []string{
	"VK_LAYER_KHRONOS_validation",
}

var DEVICE_EXTENSIONS = []string{
	"VK_KHR_swapchain",
}

// Must be enabled whenever a (MoltenVK) device advertises it.
const extPortabilitySubset = "VK_KHR_portability_subset"

var ErrNoSupportedFormat = errors.New("no supported format found")

// Device represents the interfacing objects between the SDL window, the Hardware running Vulkan
// and the rest of the rendering engine. Its main purpose is to encapsulate the corresponding objects
// to make the initialization and teardown of a given application neater.
type Device struct {
	PD            vk.PhysicalDevice
	PdProps       vk.PhysicalDeviceProperties
	PdMemoryProps vk.PhysicalDeviceMemoryProperties
	QFamilies     QueueFamilyIndices

	D         vk.Device
	GraphicsQ vk.Queue
	PresentQ  vk.Queue
}

func NewDevice(w *Window, validationLayers []string) *Device {
	dc := &Device{}
	dc.selectPhysicalDevice(w.Inst, w.Surf)
	dc.createLogicalDevice(validationLayers)
	return dc
}

// Destroy only destroys the logical device. The window it was created for stays untouched.
func (dc *Device) Destroy() {
	vk.DestroyDevice(dc.D, nil)
}

func (dc *Device) WaitIdle() {
	vk.DeviceWaitIdle(dc.D)
}

type deviceCandidate struct {
	pd    vk.PhysicalDevice
	props vk.PhysicalDeviceProperties
}

func (dc *Device) selectPhysicalDevice(in vk.Instance, su vk.Surface) {
	var candidates []deviceCandidate
	for _, pd := range ReadPhysicalDevices(in) {
		if isDeviceSuitable(pd, su) {
			candidates = append(candidates, deviceCandidate{pd: pd, props: ReadPhysicalDeviceProperties(pd)})
		}
	}
	if len(candidates) == 0 {
		log.Panicf("No suitable physical device (GPU) found")
	}
	best := slices.MaxFunc(candidates, func(a, b deviceCandidate) int {
		return DeviceTypeRank(a.props.DeviceType) - DeviceTypeRank(b.props.DeviceType)
	})
	dc.PD = best.pd
	dc.PdProps = best.props
	log.Printf("Selected physical device '%s'", vk.ToString(dc.PdProps.DeviceName[:]))

	qf, err := findQueueFamilies(dc.PD, su)
	if err != nil {
		log.Panicf("Failed to read queue families from selected device due to: %s", err)
	}
	dc.QFamilies = *qf
	dc.PdMemoryProps = ReadDeviceMemoryProperties(dc.PD)
}

// DeviceTypeRank orders device types by how well they are expected to render. Discrete GPUs win.
func DeviceTypeRank(t vk.PhysicalDeviceType) int {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 4
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 3
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 2
	case vk.PhysicalDeviceTypeCpu:
		return 1
	}
	return 0
}

func isDeviceSuitable(pd vk.PhysicalDevice, su vk.Surface) bool {
	pdProps := ReadPhysicalDeviceProperties(pd)
	pdFeatures := ReadPhysicalDeviceFeatures(pd)
	pdQueueFams := ReadQueueFamilies(pd)

	log.Printf("Physical device\n%s", ToStringPhysicalDeviceTable(pdProps, pdFeatures, pdQueueFams))

	indices, err := findQueueFamilies(pd, su)
	if err != nil {
		log.Printf("Failed to get required queue families: %s", err)
		return false
	}
	if !IsSubset(DEVICE_EXTENSIONS, ReadDeviceExtensionPropertyNames(pd)) {
		log.Printf("Device lacks one of the required extensions %v", DEVICE_EXTENSIONS)
		return false
	}
	return indices.isAllQueuesFound() && checkSwapChainAdequacy(pd, su)
}

func (dc *Device) createLogicalDevice(validationLayers []string) {
	queueInfos := dc.QFamilies.toQueueCreateInfos()
	extensions := slices.Clone(DEVICE_EXTENSIONS)
	if slices.Contains(ReadDeviceExtensionPropertyNames(dc.PD), extPortabilitySubset) {
		extensions = append(extensions, extPortabilitySubset)
	}

	deviceCreateInfo := &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: TerminatedStrs(extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}
	if len(validationLayers) > 0 {
		deviceCreateInfo.EnabledLayerCount = uint32(len(validationLayers))
		deviceCreateInfo.PpEnabledLayerNames = TerminatedStrs(slices.Clone(validationLayers))
	}

	var err error
	dc.D, err = VkCreateDevice(dc.PD, deviceCreateInfo, nil)
	if err != nil {
		log.Panicf("Failed create logical device due to: %s", err)
	}
	dc.GraphicsQ, err = VkGetDeviceQueue(dc.D, dc.QFamilies.GraphicsFamily, 0)
	if err != nil {
		log.Panicf("Failed to get 'graphics' device queue: %s", err)
	}
	dc.PresentQ, err = VkGetDeviceQueue(dc.D, dc.QFamilies.PresentFamily, 0)
	if err != nil {
		log.Panicf("Failed to get 'present' device queue: %s", err)
	}
}

// MaxUsableSampleCount clamps wanted to what color and depth attachments of this device both support.
func (dc *Device) MaxUsableSampleCount(wanted vk.SampleCountFlagBits) vk.SampleCountFlagBits {
	limits := dc.PdProps.Limits
	return SelectSampleCount(limits.FramebufferColorSampleCounts&limits.FramebufferDepthSampleCounts, wanted)
}

// SelectSampleCount returns the highest count in supported that does not exceed wanted.
func SelectSampleCount(supported vk.SampleCountFlags, wanted vk.SampleCountFlagBits) vk.SampleCountFlagBits {
	for c := wanted; c > vk.SampleCount1Bit; c >>= 1 {
		if supported&vk.SampleCountFlags(c) != 0 {
			return c
		}
	}
	return vk.SampleCount1Bit
}

func (dc *Device) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	return SelectFormat(candidates, tiling, features, func(f vk.Format) vk.FormatProperties {
		return ReadFormatProperties(dc.PD, f)
	})
}

// FindDepthFormat prefers a plain 32 bit float depth buffer.
func (dc *Device) FindDepthFormat() (vk.Format, error) {
	return dc.FindSupportedFormat(
		[]vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint},
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
	)
}

func SelectFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags, props func(vk.Format) vk.FormatProperties) (vk.Format, error) {
	for _, format := range candidates {
		p := props(format)
		switch {
		case tiling == vk.ImageTilingLinear && p.LinearTilingFeatures&features == features:
			return format, nil
		case tiling == vk.ImageTilingOptimal && p.OptimalTilingFeatures&features == features:
			return format, nil
		}
	}
	return vk.FormatUndefined, ErrNoSupportedFormat
}
