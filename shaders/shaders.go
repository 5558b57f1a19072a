// Package shaders holds the scene shaders and the interface they expect from a pipeline: push constant
// block size, descriptor bindings and entry points. Code is either read from prebuilt SPIR-V files or
// compiled from the embedded WGSL source.
package shaders

//go:generate glslc -fshader-stage=vert scene.vert -o scene.vert.spv
//go:generate glslc -fshader-stage=frag scene.frag -o scene.frag.spv

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	vk "github.com/goki/vulkan"
	"github.com/gogpu/naga"
)

//go:embed scene.wgsl
var sceneWGSL string

const spirvMagic = 0x07230203

var ErrNotSPIRV = errors.New("data is not a SPIR-V module")

// Binding is one uniform buffer a stage reads.
type Binding struct {
	Set     uint32
	Binding uint32
	Size    uint32
}

type Stage struct {
	Flag             vk.ShaderStageFlagBits
	EntryPoint       string
	Code             []uint32
	PushConstantSize uint32
	Bindings         []Binding
}

type Program struct {
	Name     string
	Vertex   Stage
	Fragment Stage
}

// CPU mirrors of the shader blocks, used to size the interface.
type (
	pushBlock struct {
		View      [16]float32
		Proj      [16]float32
		CameraPos [3]float32
	}
	modelBlock struct {
		Model [16]float32
	}
	materialBlock struct {
		Ambient   [4]float32
		Diffuse   [4]float32
		Specular  [3]float32
		Shininess float32
	}
	lightBlock struct {
		Position [4]float32
		Ambient  [4]float32
		Diffuse  [4]float32
		Specular [4]float32
	}
)

func blockSize(v any) uint32 {
	return uint32(binary.Size(v))
}

// SceneInterface returns the vertex and fragment interface of the scene shaders without code. The push
// constant sizes are what the renderer pushes; LoadScene overwrites them with the sizes the code declares.
func SceneInterface() (Stage, Stage) {
	vs := Stage{
		Flag:             vk.ShaderStageVertexBit,
		EntryPoint:       "main",
		PushConstantSize: blockSize(pushBlock{}),
		Bindings: []Binding{
			{Set: 0, Binding: 0, Size: blockSize(modelBlock{})},
		},
	}
	fs := Stage{
		Flag:             vk.ShaderStageFragmentBit,
		EntryPoint:       "main",
		PushConstantSize: blockSize(pushBlock{}),
		Bindings: []Binding{
			{Set: 1, Binding: 0, Size: blockSize(materialBlock{})},
			{Set: 1, Binding: 1, Size: blockSize(lightBlock{})},
		},
	}
	return vs, fs
}

// LoadScene prefers scene.vert.spv and scene.frag.spv in dir (see go:generate above) and falls back to
// compiling the embedded WGSL source when they are missing.
func LoadScene(dir string) (*Program, error) {
	vs, fs := SceneInterface()
	vertPath := filepath.Join(dir, "scene.vert.spv")
	fragPath := filepath.Join(dir, "scene.frag.spv")

	if dir != "" && fileExists(vertPath) && fileExists(fragPath) {
		var err error
		if vs.Code, err = ReadSPIRV(vertPath); err != nil {
			return nil, err
		}
		if fs.Code, err = ReadSPIRV(fragPath); err != nil {
			return nil, err
		}
		return reflectProgram(vs, fs)
	}

	log.Printf("No prebuilt SPIR-V in '%s', compiling embedded WGSL", dir)
	code, err := CompileWGSL(sceneWGSL)
	if err != nil {
		return nil, err
	}
	vs.Code, vs.EntryPoint = code, "vs_main"
	fs.Code, fs.EntryPoint = code, "fs_main"
	return reflectProgram(vs, fs)
}

// reflectProgram replaces the push constant sizes of both stages with the ones declared in their code.
func reflectProgram(vs Stage, fs Stage) (*Program, error) {
	for _, s := range []*Stage{&vs, &fs} {
		size, err := PushConstantBlockSize(s.Code)
		if err != nil {
			return nil, fmt.Errorf("reflect %s stage: %w", stageName(s.Flag), err)
		}
		s.PushConstantSize = size
	}
	return &Program{Name: "scene", Vertex: vs, Fragment: fs}, nil
}

func stageName(flag vk.ShaderStageFlagBits) string {
	switch flag {
	case vk.ShaderStageVertexBit:
		return "vertex"
	case vk.ShaderStageFragmentBit:
		return "fragment"
	}
	return fmt.Sprintf("0x%x", uint32(flag))
}

func ReadSPIRV(path string) ([]uint32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shader file '%s': %w", path, err)
	}
	log.Printf("Read shader file (%s) of size: %dByte", path, len(raw))
	code, err := DecodeSPIRV(raw)
	if err != nil {
		return nil, fmt.Errorf("shader file '%s': %w", path, err)
	}
	return code, nil
}

// DecodeSPIRV converts little endian SPIR-V bytes into words and checks the module magic.
func DecodeSPIRV(raw []byte) ([]uint32, error) {
	if len(raw) < 4 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: size %d is not a positive multiple of 4", ErrNotSPIRV, len(raw))
	}
	code := make([]uint32, len(raw)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	if code[0] != spirvMagic {
		return nil, fmt.Errorf("%w: magic 0x%08x", ErrNotSPIRV, code[0])
	}
	return code, nil
}

func CompileWGSL(src string) ([]uint32, error) {
	raw, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	return DecodeSPIRV(raw)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
