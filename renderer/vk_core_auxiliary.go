package renderer

import (
	"errors"
	"fmt"
	"log"

	com "rt_renderer/common"

	vk "github.com/goki/vulkan"
)

// These functions abstract from the raw Vulkan API by assuming some reasonable defaults where possible. They
// differ from the VKS functions in vk_simplifications.go by being tied to a Core and are closer to helpers of
// the struct than to a general abstraction of the API.

var errEmptyPayload = errors.New("buffer payload is empty")

// copyBuffer prepares a command buffer that is executed on the device right away. It is allocated, records the copy
// command and is submitted. After the queue went idle the command buffer is freed.
func (c *Core) copyBuffer(src *com.Buffer, dst *com.Buffer, s vk.DeviceSize) error {
	cmdBuf, err := com.VKSBeginOneTimeCommands(c.device.D, c.uploadPool)
	if err != nil {
		return fmt.Errorf("begin copy commands: %w", err)
	}
	copyRegions := []vk.BufferCopy{
		{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      s,
		},
	}
	vk.CmdCopyBuffer(cmdBuf, src.Handle, dst.Handle, 1, copyRegions)
	if err = com.VKSEndOneTimeCommands(c.device.D, c.uploadPool, c.device.GraphicsQ, cmdBuf); err != nil {
		return fmt.Errorf("submit copy commands: %w", err)
	}
	return nil
}

// UploadBuffer moves payload into a new device local buffer through a host visible staging buffer. The staging
// buffer is gone when this returns.
func (c *Core) UploadBuffer(name string, usage vk.BufferUsageFlags, payload []byte) (*com.Buffer, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("'%s': %w", name, errEmptyPayload)
	}
	bufSize := vk.DeviceSize(len(payload))

	stgBuf, err := com.CreateBuffer(
		c.device,
		bufSize,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("create staging buffer for '%s': %w", name, err)
	}
	defer com.DestroyBuffer(c.device, stgBuf)
	if err = com.CopyToDeviceBuffer(c.device, stgBuf, payload); err != nil {
		return nil, fmt.Errorf("fill staging buffer for '%s': %w", name, err)
	}

	buf, err := com.CreateBuffer(
		c.device,
		bufSize,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("create buffer for '%s': %w", name, err)
	}
	if err = c.copyBuffer(stgBuf, buf, bufSize); err != nil {
		com.DestroyBuffer(c.device, buf)
		return nil, fmt.Errorf("copy buffer for '%s': %w", name, err)
	}
	c.liveBuffers++
	log.Printf(
		"Created buffer (\"%s\": [handleRef@%p, bufferRef@%p, Size: %d Byte])",
		name, &buf.Handle, &buf.DeviceMem, bufSize,
	)
	return buf, nil
}

func (c *Core) DestroyBuffer(buf *com.Buffer) {
	com.DestroyBuffer(c.device, buf)
	c.liveBuffers--
}
