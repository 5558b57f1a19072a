package common

import (
	"encoding/hex"
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"
)

// Human readable renderings of device information for the startup log.

// ToStringPhysicalDeviceTable renders a device, its properties and its queue families as a small tree.
func ToStringPhysicalDeviceTable(pdProps vk.PhysicalDeviceProperties, pdFeatures vk.PhysicalDeviceFeatures, qFamilies []vk.QueueFamilyProperties) string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%s:\n|_%s\n", vk.ToString(pdProps.DeviceName[:]), toStringPhysicalDeviceProps(pdProps))
	fmt.Fprintf(&sb, "|_geometryShader: %t, samplerAnisotropy: %t\n", pdFeatures.GeometryShader == vk.True, pdFeatures.SamplerAnisotropy == vk.True)
	for i := range qFamilies {
		prefix := "| "
		if i == len(qFamilies)-1 {
			prefix = "|_"
		}
		fmt.Fprintf(&sb, "%sQfamily[%d] %s\n", prefix, i, toStringQueueFamilyProps(qFamilies[i]))
	}
	return sb.String()
}

// VendorName knows the handful of PCI vendor ids seen in practice.
func VendorName(v vk.VendorId) string {
	switch v {
	case 0x1002:
		return "AMD"
	case 0x1010:
		return "ImgTec"
	case 0x10DE:
		return "NVIDIA"
	case 0x13B5:
		return "ARM"
	case 0x5143:
		return "Qualcomm"
	case 0x8086:
		return "INTEL"
	case 0x106B:
		return "Apple"
	case 0x10005:
		return "Mesa"
	}
	return "unknown"
}

// DriverVersion decodes the vendor specific driver version. NVIDIA packs it as 10.8.8.6 bits.
func DriverVersion(vendor vk.VendorId, raw uint32) string {
	if vendor == 0x10DE {
		return fmt.Sprintf("%d.%d.%d.%d", (raw>>22)&0x3ff, (raw>>14)&0x0ff, (raw>>6)&0x0ff, raw&0x003f)
	}
	return vk.Version(raw).String()
}

func DeviceTypeName(dt vk.PhysicalDeviceType) string {
	switch dt {
	case vk.PhysicalDeviceTypeOther:
		return "other"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated Gpu"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete Gpu"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual Gpu"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "unknown"
}

func toStringPhysicalDeviceProps(pdProps vk.PhysicalDeviceProperties) string {
	vendor := vk.VendorId(pdProps.VendorID)
	return fmt.Sprintf("api: %s, driver: %s, vendorId: %d (%s), deviceId: %d, deviceType: %d (%s), UUID: %v",
		vk.Version(pdProps.ApiVersion).String(),
		DriverVersion(vendor, pdProps.DriverVersion),
		vendor,
		VendorName(vendor),
		pdProps.DeviceID,
		pdProps.DeviceType,
		DeviceTypeName(pdProps.DeviceType),
		hex.EncodeToString(pdProps.PipelineCacheUUID[:]),
	)
}

func toStringQueueFamilyProps(q vk.QueueFamilyProperties) string {
	return fmt.Sprintf(
		"Count: %2d, Valid ts bits: %d, ImageGranularity: (%d,%d,%d), Flags: %v",
		q.QueueCount,
		q.TimestampValidBits,
		q.MinImageTransferGranularity.Width,
		q.MinImageTransferGranularity.Height,
		q.MinImageTransferGranularity.Depth,
		QueueFlagNames(q.QueueFlags),
	)
}

func toStringMemoryType(mt vk.MemoryType) string {
	return fmt.Sprintf("MemoryType(Flags:%032b, HeapIdx:%d)", mt.PropertyFlags, mt.HeapIndex)
}

var queueFlagNames = []struct {
	bit  vk.QueueFlagBits
	name string
}{
	{vk.QueueGraphicsBit, "VK_QUEUE_GRAPHICS_BIT"},
	{vk.QueueComputeBit, "VK_QUEUE_COMPUTE_BIT"},
	{vk.QueueTransferBit, "VK_QUEUE_TRANSFER_BIT"},
	{vk.QueueSparseBindingBit, "VK_QUEUE_SPARSE_BINDING_BIT"},
	{vk.QueueProtectedBit, "VK_QUEUE_PROTECTED_BIT"},
}

func QueueFlagNames(bits vk.QueueFlags) []string {
	var names []string
	for _, f := range queueFlagNames {
		if vk.QueueFlagBits(bits)&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	return names
}
