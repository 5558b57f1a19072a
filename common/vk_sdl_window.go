package common

import (
	"fmt"
	"log"
	"slices"

	vk "github.com/goki/vulkan"
	"github.com/veandco/go-sdl2/sdl"
)

const APPLICATION_NAME = "rt_renderer"
const APP_MAJOR, APP_MINOR, APP_PATCH = 1, 0, 0
const ENGINE_NAME = "No Engine"
const ENGINE_MAJOR, ENGINE_MINOR, ENGINE_PATCH = 1, 0, 0

const SDL_MAJOR, SDL_MINOR, SDL_PATCH = int(sdl.MAJOR_VERSION), int(sdl.MINOR_VERSION), int(sdl.PATCHLEVEL)

// Vulkan spec go bindings = v1.0.7, as per: https://github.com/goki/vulkan = 1.3.239
const VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH int = 1, 3, 239

const (
	extSwapchainColorSpace    = "VK_EXT_swapchain_colorspace"
	extPortabilityEnumeration = "VK_KHR_portability_enumeration"

	// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	instanceCreateEnumeratePortability = vk.InstanceCreateFlags(0x00000001)
)

type WindowConfig struct {
	Title            string
	Width            int32
	Height           int32
	Resizable        bool
	ValidationLayers []string
}

// Window encapsulates all window handling components and vulkan access objects to talk, to actual draw on screen. It
// uses SDL for window management and user input, for a Vulkan application. Thus simplifying the process of getting a
// vk.surface to draw on and interact with.
type Window struct {
	sdlVersion string
	vkVersion  string

	Win  *sdl.Window
	Inst vk.Instance
	Surf vk.Surface

	// HdrColorSpaces is set when VK_EXT_swapchain_colorspace could be enabled on the instance.
	HdrColorSpaces bool

	redrawRequested bool
}

// NewWindow initializes SDL, loads Vulkan, creates the instance and a surface for a new window. On tear down,
// we need to destroy the: vk.surface, vk.instance and sdl.window.
func NewWindow(cfg WindowConfig) *Window {
	window := &Window{
		sdlVersion: fmt.Sprintf("v%d.%d.%d", SDL_MAJOR, SDL_MINOR, SDL_PATCH),
		vkVersion:  fmt.Sprintf("v%d.%d.%d", VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH),
	}
	window.initSDLWindow(cfg)
	window.initVulkan()
	window.createVulkanInstance(cfg.ValidationLayers)
	window.createSdlVkSurface()
	log.Printf("Generated SDL/Vulkan window - SDL: %s Vulkan Spec: %s", window.sdlVersion, window.vkVersion)
	return window
}

// Destroy tears down vk.surface, vk.instance and sdl.window.
func (w *Window) Destroy() {
	vk.DestroySurface(w.Inst, w.Surf, nil)
	vk.DestroyInstance(w.Inst, nil)
	if err := w.Win.Destroy(); err != nil {
		log.Printf("Failed to destroy SDL window: %v", err)
	}
	sdl.Quit()
}

// DrawableSize is the window's size in pixels, which differs from its size in points on high DPI displays.
func (w *Window) DrawableSize() (int32, int32) {
	return w.Win.VulkanGetDrawableSize()
}

// IsMinimized reports whether nothing of the window is visible.
func (w *Window) IsMinimized() bool {
	return w.Win.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

func (w *Window) initSDLWindow(cfg WindowConfig) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.Panicf("Failed to initialize SDL: %v", err)
	}
	log.Println("Initialized SDL")
	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_VULKAN | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}
	win, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, cfg.Width, cfg.Height, flags)
	if err != nil {
		log.Panicf("Failed to create SDL window for use with Vulkan: %v", err)
	}
	log.Printf("Created SDL window for use with Vulkan. Title: \"%s\", Width: %d, Height: %d", cfg.Title, cfg.Width, cfg.Height)
	w.Win = win
}

func (w *Window) initVulkan() {
	// Find and load Vulkan addresses to be able to call driver level functions via provided mechanism
	vk.SetGetInstanceProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err := vk.Init(); err != nil {
		log.Panicf("Failed to initialize Vulkan API: %v", err)
	}
}

// InstanceExtensions adds the optional extensions the viewer benefits from to the ones SDL requires. It
// reports whether the HDR color spaces and portability enumeration are part of the result.
func InstanceExtensions(required []string, supported []string) (exts []string, hdr bool, portability bool) {
	exts = slices.Clone(required)
	for _, opt := range []string{extSwapchainColorSpace, extPortabilityEnumeration} {
		if slices.Contains(supported, opt) && !slices.Contains(exts, opt) {
			exts = append(exts, opt)
		}
	}
	return exts, slices.Contains(exts, extSwapchainColorSpace), slices.Contains(exts, extPortabilityEnumeration)
}

func (w *Window) createVulkanInstance(validationLayers []string) {
	supportedExtNames := ReadInstanceExtensionPropertyNames()
	requiredExtensions := w.Win.VulkanGetInstanceExtensions()
	log.Printf("Required instance extensions: %v", requiredExtensions)
	if !IsSubset(requiredExtensions, supportedExtNames) {
		log.Panicf("At least one required instance extension is not supported")
	}
	extensions, hdr, portability := InstanceExtensions(requiredExtensions, supportedExtNames)
	w.HdrColorSpaces = hdr

	if len(validationLayers) > 0 {
		log.Printf("Validation enabled, checking layer support")
		checkValidationLayerSupport(validationLayers)
	}
	applicationInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   TerminatedStr(APPLICATION_NAME),
		ApplicationVersion: vk.MakeVersion(APP_MAJOR, APP_MINOR, APP_PATCH),
		PEngineName:        TerminatedStr(ENGINE_NAME),
		EngineVersion:      vk.MakeVersion(ENGINE_MAJOR, ENGINE_MINOR, ENGINE_PATCH),
		ApiVersion:         vk.MakeVersion(VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH),
	}
	createInfo := &vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        applicationInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: TerminatedStrs(extensions),
	}
	if portability {
		createInfo.Flags = instanceCreateEnumeratePortability
	}
	if len(validationLayers) > 0 {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = TerminatedStrs(slices.Clone(validationLayers))
	}
	ins, err := VkCreateInstance(createInfo, nil)
	if err != nil {
		log.Panicf("Failed to create vk instance, due to: %v", err)
	}
	w.Inst = ins
}

func checkValidationLayerSupport(requiredLayers []string) {
	supportedLayerNames := ReadInstanceLayerPropertyNames()
	log.Printf("Desired validation layers: %v", requiredLayers)
	log.Printf("Supported layers (%d): %v", len(supportedLayerNames), supportedLayerNames)

	if !IsSubset(requiredLayers, supportedLayerNames) {
		log.Panicf("At least one desired layer is not supported")
	}
	log.Println("Success - All desired validation layers are supported")
}

func (w *Window) createSdlVkSurface() {
	surf, err := SdlCreateVkSurface(w.Win, w.Inst)
	if err != nil {
		log.Panicf("Failed to create SDL window's Vulkan-surface, due to: %v", err)
	}
	w.Surf = surf
}
