package main

import (
	"log"
	"os"
	"runtime"

	"rt_renderer/assets"
	com "rt_renderer/common"
	"rt_renderer/config"
	"rt_renderer/model"
	"rt_renderer/renderer"
	"rt_renderer/shaders"

	vk "github.com/goki/vulkan"
)

var VALIDATION_LAYERS = []string{
	"VK_LAYER_KHRONOS_validation",
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)
	log.Println("Starting scene viewer")
	log.Printf("Using GoLang: [%s]", runtime.Version())

	// SDL and every Vulkan call of the frame loop have to stay on the main thread
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	scene, err := assets.Load(cfg.Scene.Source)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}
	cfg.Apply(scene)

	program, err := shaders.LoadScene(cfg.Shaders.Dir)
	if err != nil {
		log.Fatalf("Failed to load shaders: %v", err)
	}

	core := renderer.NewRenderCore(settings(&cfg), program)
	if cfg.Window.EDR {
		core.Win.EnableExtendedDynamicRange()
	}

	if err := run(&cfg, core, scene); err != nil {
		core.Destroy()
		log.Fatalf("Renderer stopped: %v", err)
	}
	core.Destroy()
}

// run uploads the scene, drives the frame loop until the window closes and releases the scene again.
func run(cfg *config.Config, core *renderer.Core, scene *model.Scene) error {
	models, err := renderer.UploadScene(core, scene, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		core.WaitIdle()
		renderer.ReleaseScene(core, models)
	}()

	bindings, err := renderer.NewSceneBindings(core.Device(), core.Pipeline(), scene)
	if err != nil {
		return err
	}
	defer bindings.Destroy(core.Device())

	loop := renderer.NewFrameLoop(
		core.Win,
		core,
		renderer.NewFrameRenderer(core, cfg.Render.ClearColor),
		func() []renderer.DrawCommand { return core.DrawCommands(models, bindings) },
		cfg.OrbitCamera(),
	)
	err = loop.Run()
	core.WaitIdle()
	return err
}

func settings(cfg *config.Config) renderer.Settings {
	var layers []string
	if cfg.Render.Validation {
		layers = VALIDATION_LAYERS
	}
	return renderer.Settings{
		Window: com.WindowConfig{
			Title:            cfg.Window.Title,
			Width:            cfg.Window.Width,
			Height:           cfg.Window.Height,
			Resizable:        cfg.Window.Resizable,
			ValidationLayers: layers,
		},
		Samples:        vk.SampleCountFlagBits(cfg.Render.Samples),
		VSync:          cfg.Render.VSync,
		FramesInFlight: cfg.Render.FramesInFlight,
	}
}
