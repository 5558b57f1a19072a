package renderer

import (
	"log"

	com "rt_renderer/common"
	"rt_renderer/shaders"

	vk "github.com/goki/vulkan"
)

// LoadStage turns the code of a shader stage into a shader module and the vk.PipelineShaderStageCreateInfo
// needed to bind it to a pipeline. A stage without code or entry point can never produce a working pipeline,
// which is why this panics instead of returning an error.
func LoadStage(d vk.Device, stage shaders.Stage) (vk.ShaderModule, vk.PipelineShaderStageCreateInfo) {
	if stage.EntryPoint == "" {
		log.Panicf("Shader stage %d has no entry point", stage.Flag)
	}
	if len(stage.Code) == 0 {
		log.Panicf("Shader stage %d ('%s') has no code", stage.Flag, stage.EntryPoint)
	}
	mod, err := com.VKSCreateShaderModule(d, stage.Code)
	if err != nil {
		log.Panicf("Failed to create shader module for '%s': %v", stage.EntryPoint, err)
	}
	log.Printf("Created shader module for stage %d, entry point '%s'", stage.Flag, stage.EntryPoint)

	stageInfo := vk.PipelineShaderStageCreateInfo{
		SType:               vk.StructureTypePipelineShaderStageCreateInfo,
		PNext:               nil,
		Flags:               0,
		Stage:               stage.Flag,
		Module:              mod,
		PName:               com.TerminatedStr(stage.EntryPoint),
		PSpecializationInfo: nil,
	}
	return mod, stageInfo
}

// DeleteShaderMod discards a shader module. It only carries code to the device, so it can go right after the
// pipeline using it was created.
func DeleteShaderMod(d vk.Device, mod vk.ShaderModule) {
	vk.DestroyShaderModule(d, mod, nil)
}
