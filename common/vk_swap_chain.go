package common

import (
	"errors"
	"log"

	vk "github.com/goki/vulkan"
)

// ColorSpaceExtendedSrgbLinear is VK_COLOR_SPACE_EXTENDED_SRGB_LINEAR_EXT (VK_EXT_swapchain_colorspace).
const ColorSpaceExtendedSrgbLinear = vk.ColorSpace(1000104002)

// undefinedExtent marks a surface whose size is decided by the swap chain.
const undefinedExtent = 0xFFFFFFFF

var ErrZeroExtent = errors.New("surface has a zero sized extent")

type SwapChainDetails struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SwapChainPrefs are the wishes of the viewer. Unsupported wishes fall back to what the surface offers.
type SwapChainPrefs struct {
	Format     vk.Format
	ColorSpace vk.ColorSpace
	VSync      bool
}

// HdrPrefs requests a half float swap chain in extended linear sRGB.
func HdrPrefs(vsync bool) SwapChainPrefs {
	return SwapChainPrefs{
		Format:     vk.FormatR16g16b16a16Sfloat,
		ColorSpace: ColorSpaceExtendedSrgbLinear,
		VSync:      vsync,
	}
}

type SwapChain struct {
	Handle vk.Swapchain

	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D

	Images   []vk.Image
	ImgViews []vk.ImageView
	Aspect   float32
}

// NewSwapChain creates a swap chain for the window's surface. A non nil old swap chain is handed to the driver
// for resource reuse and stays owned by the caller. ErrZeroExtent is returned while the window is minimized.
func NewSwapChain(dc *Device, w *Window, prefs SwapChainPrefs, old vk.Swapchain) (*SwapChain, error) {
	details := ReadSwapChainSupportDetails(dc.PD, w.Surf)
	if len(details.Formats) == 0 || len(details.PresentModes) == 0 {
		return nil, errors.New("surface offers no formats or present modes")
	}
	dw, dh := w.DrawableSize()

	sc := &SwapChain{
		Format:      SelectSurfaceFormat(details.Formats, prefs.Format, prefs.ColorSpace),
		PresentMode: SelectPresentMode(details.PresentModes, prefs.VSync),
		Extent:      SelectExtent(details.Capabilities, dw, dh),
	}
	if sc.Extent.Width == 0 || sc.Extent.Height == 0 {
		return nil, ErrZeroExtent
	}

	if err := sc.createSwapChainHandle(dc, w, details.Capabilities, old); err != nil {
		return nil, err
	}
	sc.Images = ReadSwapChainImages(dc.D, sc.Handle)
	sc.ImgViews = make([]vk.ImageView, len(sc.Images))
	for i := range sc.Images {
		view, err := CreateImageView(dc, sc.Images[i], sc.Format.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			sc.Destroy(dc)
			return nil, err
		}
		sc.ImgViews[i] = view
	}
	sc.Aspect = float32(sc.Extent.Width) / float32(sc.Extent.Height)
	log.Printf("Created swap chain with %d images (%dx%d, format %d, color space %d, present mode %d)",
		len(sc.Images), sc.Extent.Width, sc.Extent.Height, sc.Format.Format, sc.Format.ColorSpace, sc.PresentMode)
	return sc, nil
}

func (sc *SwapChain) createSwapChainHandle(dc *Device, w *Window, caps vk.SurfaceCapabilities, old vk.Swapchain) error {
	// Depending on whether our queue families are the same for graphics and presentation, we need to choose different
	// swap chain configurations: https://vulkan-tutorial.com/Drawing_a_triangle/Presentation/Swap_chain
	indices := dc.QFamilies
	sharingMode := vk.SharingModeExclusive
	var qFamIndices []uint32
	if *indices.GraphicsFamily != *indices.PresentFamily {
		sharingMode = vk.SharingModeConcurrent
		qFamIndices = []uint32{*indices.GraphicsFamily, *indices.PresentFamily}
	}

	createInfo := &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               w.Surf,
		MinImageCount:         SelectImageCount(caps),
		ImageFormat:           sc.Format.Format,
		ImageColorSpace:       sc.Format.ColorSpace,
		ImageExtent:           sc.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(qFamIndices)),
		PQueueFamilyIndices:   qFamIndices,
		PreTransform:          caps.CurrentTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           sc.PresentMode,
		Clipped:               vk.True,
		OldSwapchain:          old,
	}

	var err error
	sc.Handle, err = VkCreateSwapChain(dc.D, createInfo, nil)
	if err != nil {
		return err
	}
	return nil
}

func (sc *SwapChain) Destroy(dc *Device) {
	for i := range sc.ImgViews {
		if sc.ImgViews[i] != nil {
			vk.DestroyImageView(dc.D, sc.ImgViews[i], nil)
		}
	}
	vk.DestroySwapchain(dc.D, sc.Handle, nil)
}

func SelectSurfaceFormat(formats []vk.SurfaceFormat, desiredFormat vk.Format, desiredColorSpace vk.ColorSpace) vk.SurfaceFormat {
	for _, af := range formats {
		if af.Format == desiredFormat && af.ColorSpace == desiredColorSpace {
			return af
		}
	}
	fallbackFormat := formats[0]
	log.Printf("Did not find prefered SurfaceFormat, selecting first one available. (%v)", fallbackFormat)
	return fallbackFormat
}

// SelectPresentMode picks FIFO, which every surface supports, when vsync is wanted. Otherwise mailbox and
// immediate are preferred in that order.
func SelectPresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, want := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, pm := range modes {
			if pm == want {
				return pm
			}
		}
	}
	log.Printf("Did not find a tearing present mode, selecting FIFO")
	return vk.PresentModeFifo
}

// SelectExtent returns the surface's current extent. Surfaces that leave the choice to the swap chain get the
// drawable size clamped into the supported range.
func SelectExtent(caps vk.SurfaceCapabilities, drawableW, drawableH int32) vk.Extent2D {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(uint32(max(drawableW, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(max(drawableH, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// SelectImageCount asks for one image more than the minimum. A maximum of 0 means there is no limit.
func SelectImageCount(caps vk.SurfaceCapabilities) uint32 {
	imgCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imgCount > caps.MaxImageCount {
		imgCount = caps.MaxImageCount
	}
	return imgCount
}

func clamp(v, lo, hi uint32) uint32 {
	return min(max(v, lo), hi)
}

func checkSwapChainAdequacy(pd vk.PhysicalDevice, surface vk.Surface) bool {
	details := ReadSwapChainSupportDetails(pd, surface)
	return len(details.Formats) > 0 && len(details.PresentModes) > 0
}
