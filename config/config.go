// Package config holds the viewer settings read from a YAML file. Every field has a default, so a missing
// file or a partial one is fine.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"rt_renderer/model"
	vm "rt_renderer/vector_math"

	"gopkg.in/yaml.v3"
)

const (
	EnvPath     = "RT_RENDERER_CONFIG"
	DefaultPath = "viewer.yaml"
)

type Window struct {
	Title     string `yaml:"title"`
	Width     int32  `yaml:"width"`
	Height    int32  `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	// EDR enables extended dynamic range on the window's metal layer (macOS only).
	EDR bool `yaml:"edr"`
}

type Render struct {
	Samples    int        `yaml:"samples"`
	VSync      bool       `yaml:"vsync"`
	Validation bool       `yaml:"validation"`
	ClearColor [4]float32 `yaml:"clear_color,flow"`
	// FramesInFlight is the number of frames the CPU may record ahead of the GPU.
	FramesInFlight int `yaml:"frames_in_flight"`
}

type Scene struct {
	Source string `yaml:"source"`
}

type Camera struct {
	Omega  float32 `yaml:"omega"`
	Radius float32 `yaml:"radius"`
	Height float32 `yaml:"height"`
	FovDeg float32 `yaml:"fov_deg"`
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
}

type Material struct {
	Ambient   [3]float32 `yaml:"ambient,flow"`
	Diffuse   [3]float32 `yaml:"diffuse,flow"`
	Specular  [3]float32 `yaml:"specular,flow"`
	Shininess float32    `yaml:"shininess"`
}

type Light struct {
	Position [3]float32 `yaml:"position,flow"`
	Ambient  [3]float32 `yaml:"ambient,flow"`
	Diffuse  [3]float32 `yaml:"diffuse,flow"`
	Specular [3]float32 `yaml:"specular,flow"`
}

// Shaders points at a directory with prebuilt scene.vert.spv and scene.frag.spv. Empty means the embedded
// WGSL source is compiled instead.
type Shaders struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	Window   Window   `yaml:"window"`
	Render   Render   `yaml:"render"`
	Scene    Scene    `yaml:"scene"`
	Camera   Camera   `yaml:"camera"`
	Material Material `yaml:"material"`
	Light    Light    `yaml:"light"`
	Shaders  Shaders  `yaml:"shaders"`
}

func Default() Config {
	cam := vm.DefaultOrbitCamera()
	mat := model.DefaultMaterial()
	light := model.DefaultLight()
	return Config{
		Window: Window{
			Title:  "r/place 2023 Player",
			Width:  1280,
			Height: 720,
		},
		Render: Render{
			Samples:        4,
			VSync:          true,
			ClearColor:     [4]float32{0, 0, 0, 1},
			FramesInFlight: 3,
		},
		Scene:   Scene{Source: "builtin:cube"},
		Shaders: Shaders{Dir: "shaders"},
		Camera: Camera{
			Omega:  cam.Omega,
			Radius: cam.Radius,
			Height: cam.Height,
			FovDeg: cam.FovY,
			Near:   cam.Near,
			Far:    cam.Far,
		},
		Material: Material{
			Ambient:   arr(mat.Ambient),
			Diffuse:   arr(mat.Diffuse),
			Specular:  arr(mat.Specular),
			Shininess: mat.Shininess,
		},
		Light: Light{
			Position: arr(light.Position),
			Ambient:  arr(light.Ambient),
			Diffuse:  arr(light.Diffuse),
			Specular: arr(light.Specular),
		},
	}
}

// Path returns the configuration file location, taken from RT_RENDERER_CONFIG when set.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the file at path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("No config file at '%s', using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config '%s': %w", path, err)
	}
	log.Printf("Loaded config '%s'", path)
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if s := c.Render.Samples; s < 1 || s > 64 || s&(s-1) != 0 {
		return fmt.Errorf("samples %d must be a power of two between 1 and 64", s)
	}
	if c.Render.FramesInFlight < 1 {
		return fmt.Errorf("frames in flight %d must be at least 1", c.Render.FramesInFlight)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("clip planes near %g far %g must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FovDeg <= 0 || c.Camera.FovDeg >= 180 {
		return fmt.Errorf("field of view %g must be within (0, 180) degree", c.Camera.FovDeg)
	}
	if c.Scene.Source == "" {
		return errors.New("scene source is empty")
	}
	return nil
}

func (c *Config) OrbitCamera() vm.OrbitCamera {
	return vm.OrbitCamera{
		Omega:  c.Camera.Omega,
		Radius: c.Camera.Radius,
		Height: c.Camera.Height,
		FovY:   c.Camera.FovDeg,
		Near:   c.Camera.Near,
		Far:    c.Camera.Far,
	}
}

// Apply copies the material and light settings into the scene.
func (c *Config) Apply(s *model.Scene) {
	s.Material = model.Material{
		Ambient:   vec(c.Material.Ambient),
		Diffuse:   vec(c.Material.Diffuse),
		Specular:  vec(c.Material.Specular),
		Shininess: c.Material.Shininess,
	}
	s.Light = model.Light{
		Position: vec(c.Light.Position),
		Ambient:  vec(c.Light.Ambient),
		Diffuse:  vec(c.Light.Diffuse),
		Specular: vec(c.Light.Specular),
	}
}

func arr(v vm.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func vec(a [3]float32) vm.Vec3 {
	return vm.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
