package renderer

import (
	"fmt"

	com "rt_renderer/common"

	vk "github.com/goki/vulkan"
)

// Attachments are the images rendered into besides the swapchain images, plus one framebuffer per swapchain image.
// They live as long as the swapchain they were made for.
type Attachments struct {
	Depth        *com.Image
	Msaa         *com.Image
	Framebuffers []vk.Framebuffer
}

func NewAttachments(dev *com.Device, sc *com.SwapChain, po *PipelineObject) (*Attachments, error) {
	a := &Attachments{}
	var err error
	a.Depth, err = com.CreateImage(dev, com.ImageSpec{
		Width:   sc.Extent.Width,
		Height:  sc.Extent.Height,
		Format:  po.Key.DepthFormat,
		Usage:   vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Samples: po.Key.Samples,
		Aspect:  vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	}, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 0)
	if err != nil {
		return nil, fmt.Errorf("create depth attachment: %w", err)
	}

	if po.Key.multisampled() {
		a.Msaa, err = com.CreateImage(dev, com.ImageSpec{
			Width:   sc.Extent.Width,
			Height:  sc.Extent.Height,
			Format:  po.Key.ColorFormat,
			Usage:   vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransientAttachmentBit),
			Samples: po.Key.Samples,
			Aspect:  vk.ImageAspectFlags(vk.ImageAspectColorBit),
		}, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), vk.MemoryPropertyFlags(vk.MemoryPropertyLazilyAllocatedBit))
		if err != nil {
			a.Destroy(dev)
			return nil, fmt.Errorf("create multisample attachment: %w", err)
		}
	}

	a.Framebuffers = make([]vk.Framebuffer, len(sc.ImgViews))
	for i, view := range sc.ImgViews {
		views := framebufferViews(view, a.depthView(), a.msaaView())
		fbInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			PNext:           nil,
			Flags:           0,
			RenderPass:      po.RenderPass,
			AttachmentCount: uint32(len(views)),
			PAttachments:    views,
			Width:           sc.Extent.Width,
			Height:          sc.Extent.Height,
			Layers:          1,
		}
		fb, err := com.VkCreateFrameBuffer(dev.D, &fbInfo, nil)
		if err != nil {
			a.Destroy(dev)
			return nil, fmt.Errorf("create framebuffer %d: %w", i, err)
		}
		a.Framebuffers[i] = fb
	}
	return a, nil
}

// framebufferViews orders the views like renderPassAttachments orders the attachments. Without a multisample view
// the swapchain image is rendered to directly, otherwise it is the resolve target.
func framebufferViews(swapView vk.ImageView, depthView vk.ImageView, msaaView vk.ImageView) []vk.ImageView {
	if msaaView == nil {
		return []vk.ImageView{swapView, depthView}
	}
	return []vk.ImageView{msaaView, depthView, swapView}
}

func (a *Attachments) depthView() vk.ImageView {
	if a.Depth == nil {
		return nil
	}
	return a.Depth.View
}

func (a *Attachments) msaaView() vk.ImageView {
	if a.Msaa == nil {
		return nil
	}
	return a.Msaa.View
}

// Target assembles the frame target for swapchain image idx.
func (a *Attachments) Target(sc *com.SwapChain, po *PipelineObject, idx uint32) FrameTarget {
	return FrameTarget{
		ImageIndex:  idx,
		Extent:      sc.Extent,
		RenderPass:  po.RenderPass,
		Framebuffer: a.Framebuffers[idx],
		ColorView:   sc.ImgViews[idx],
		DepthView:   a.depthView(),
		MsaaView:    a.msaaView(),
	}
}

func (a *Attachments) Destroy(dev *com.Device) {
	for _, fb := range a.Framebuffers {
		if fb != nil {
			vk.DestroyFramebuffer(dev.D, fb, nil)
		}
	}
	a.Framebuffers = nil
	if a.Msaa != nil {
		com.DestroyImage(dev, a.Msaa)
		a.Msaa = nil
	}
	if a.Depth != nil {
		com.DestroyImage(dev, a.Depth)
		a.Depth = nil
	}
}
