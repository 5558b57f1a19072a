package common

import (
	"fmt"
	"log"

	vk "github.com/goki/vulkan"
)

// Allocation helpers for buffers and images on the selected device.

type Buffer struct {
	Handle    vk.Buffer
	DeviceMem vk.DeviceMemory
	Size      vk.DeviceSize
	Usage     vk.BufferUsageFlags
	props     vk.MemoryPropertyFlags
}

// CreateBuffer allocates a buffer in memory that has all required properties. Memory also having the preferred
// properties is picked when available.
func CreateBuffer(dc *Device, size vk.DeviceSize, usage vk.BufferUsageFlags, required vk.MemoryPropertyFlags, preferred vk.MemoryPropertyFlags) (*Buffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	buf, err := VkCreateBuffer(dc.D, &bufferInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("create buffer of %d Byte: %w", size, err)
	}

	bufRequirements := ReadBufferMemoryRequirements(dc.D, buf)
	memType, props, err := FindMemoryType(dc.PdMemoryProps, bufRequirements.MemoryTypeBits, required, preferred)
	if err != nil {
		vk.DestroyBuffer(dc.D, buf, nil)
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  bufRequirements.Size,
		MemoryTypeIndex: memType,
	}
	deviceMem, err := VkAllocateMemory(dc.D, &allocInfo, nil)
	if err != nil {
		vk.DestroyBuffer(dc.D, buf, nil)
		return nil, fmt.Errorf("allocate %d Byte buffer memory: %w", bufRequirements.Size, err)
	}
	if err = VkBindBufferMemory(dc.D, buf, deviceMem, 0); err != nil {
		vk.DestroyBuffer(dc.D, buf, nil)
		vk.FreeMemory(dc.D, deviceMem, nil)
		return nil, fmt.Errorf("bind buffer memory: %w", err)
	}

	return &Buffer{
		Handle:    buf,
		DeviceMem: deviceMem,
		Size:      size,
		Usage:     usage,
		props:     props,
	}, nil
}

// CopyToDeviceBuffer maps the buffer, copies payload to its start and unmaps it again. This requires the buffer
// memory to be host visible and coherent and payload to fill the whole buffer.
func CopyToDeviceBuffer(dc *Device, deviceBuf *Buffer, payload []byte) error {
	hostVisCoh := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	if deviceBuf.props&hostVisCoh != hostVisCoh {
		return fmt.Errorf("buffer memory is not host visible and coherent")
	}
	if deviceBuf.Size != vk.DeviceSize(len(payload)) {
		return fmt.Errorf("buffer of %d Byte can not take payload of %d Byte", deviceBuf.Size, len(payload))
	}
	pData, err := VkMapMemory(dc.D, deviceBuf.DeviceMem, 0, deviceBuf.Size, 0)
	if err != nil {
		return fmt.Errorf("map buffer memory: %w", err)
	}
	vk.Memcopy(pData, payload)
	vk.UnmapMemory(dc.D, deviceBuf.DeviceMem)
	return nil
}

func DestroyBuffer(dc *Device, buffer *Buffer) {
	vk.DestroyBuffer(dc.D, buffer.Handle, nil)
	vk.FreeMemory(dc.D, buffer.DeviceMem, nil)
}

// ImageSpec describes a 2D single mip image used as render attachment.
type ImageSpec struct {
	Width   uint32
	Height  uint32
	Format  vk.Format
	Usage   vk.ImageUsageFlags
	Samples vk.SampleCountFlagBits
	Aspect  vk.ImageAspectFlags
}

type Image struct {
	Handle    vk.Image
	DeviceMem vk.DeviceMemory
	View      vk.ImageView
	Spec      ImageSpec
}

// CreateImage allocates an optimally tiled image with a view covering it.
func CreateImage(dc *Device, spec ImageSpec, required vk.MemoryPropertyFlags, preferred vk.MemoryPropertyFlags) (*Image, error) {
	imageInfo := &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    spec.Format,
		Extent: vk.Extent3D{
			Width:  spec.Width,
			Height: spec.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       spec.Samples,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         spec.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	img, err := VkCreateImage(dc.D, imageInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("create %dx%d image: %w", spec.Width, spec.Height, err)
	}

	memRequirements := ReadImageMemoryRequirements(dc.D, img)
	memType, _, err := FindMemoryType(dc.PdMemoryProps, memRequirements.MemoryTypeBits, required, preferred)
	if err != nil {
		vk.DestroyImage(dc.D, img, nil)
		return nil, err
	}
	allocInfo := &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memType,
	}
	imgMemory, err := VkAllocateMemory(dc.D, allocInfo, nil)
	if err != nil {
		vk.DestroyImage(dc.D, img, nil)
		return nil, fmt.Errorf("allocate image memory: %w", err)
	}
	if err = VkBindImageMemory(dc.D, img, imgMemory, 0); err != nil {
		vk.DestroyImage(dc.D, img, nil)
		vk.FreeMemory(dc.D, imgMemory, nil)
		return nil, fmt.Errorf("bind image memory: %w", err)
	}
	view, err := CreateImageView(dc, img, spec.Format, spec.Aspect)
	if err != nil {
		vk.DestroyImage(dc.D, img, nil)
		vk.FreeMemory(dc.D, imgMemory, nil)
		return nil, err
	}
	return &Image{Handle: img, DeviceMem: imgMemory, View: view, Spec: spec}, nil
}

func DestroyImage(dc *Device, img *Image) {
	vk.DestroyImageView(dc.D, img.View, nil)
	vk.DestroyImage(dc.D, img.Handle, nil)
	vk.FreeMemory(dc.D, img.DeviceMem, nil)
}

func CreateImageView(dc *Device, image vk.Image, format vk.Format, aspectFlags vk.ImageAspectFlags) (vk.ImageView, error) {
	createInfo := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspectFlags,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	imgView, err := VkCreateImageView(dc.D, createInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("create image view: %w", err)
	}
	return imgView, nil
}

// FindMemoryType returns the first memory type allowed by typeFilter with required|preferred properties and
// falls back to one that only has the required ones. The properties of the chosen type are returned as well.
func FindMemoryType(memProps vk.PhysicalDeviceMemoryProperties, typeFilter uint32, required vk.MemoryPropertyFlags, preferred vk.MemoryPropertyFlags) (uint32, vk.MemoryPropertyFlags, error) {
	for _, want := range []vk.MemoryPropertyFlags{required | preferred, required} {
		for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
			mt := memProps.MemoryTypes[i]
			if typeFilter&(1<<i) != 0 && mt.PropertyFlags&want == want {
				log.Printf("Found memory type %d on heap %d: %s", i, mt.HeapIndex, toStringMemoryType(mt))
				return i, mt.PropertyFlags, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("no memory type in filter %032b has properties %b", typeFilter, required)
}
