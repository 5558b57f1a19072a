package renderer

import (
	"fmt"
	"log"

	com "rt_renderer/common"
	"rt_renderer/model"
	"rt_renderer/shaders"

	vk "github.com/goki/vulkan"
)

// uniformPayload is the content of one uniform buffer binding.
type uniformPayload struct {
	Name    string
	Set     uint32
	Binding uint32
	Data    []byte
}

// bindingPlan lays the scene uniforms out as the shaders expect them: the model transform at set 0, material and
// light at set 1. Every payload must match a binding of the pipeline in size and every binding must be filled.
func bindingPlan(scene *model.Scene, bindings []shaders.Binding) ([]uniformPayload, error) {
	plan := []uniformPayload{
		{Name: "model", Set: 0, Binding: 0, Data: scene.Uniform.Bytes()},
		{Name: "material", Set: 1, Binding: 0, Data: scene.Material.Bytes()},
		{Name: "light", Set: 1, Binding: 1, Data: scene.Light.Bytes()},
	}
	if len(bindings) != len(plan) {
		return nil, fmt.Errorf("pipeline declares %d uniform bindings, scene provides %d", len(bindings), len(plan))
	}
	for _, p := range plan {
		found := false
		for _, b := range bindings {
			if b.Set != p.Set || b.Binding != p.Binding {
				continue
			}
			if b.Size != uint32(len(p.Data)) {
				return nil, fmt.Errorf(
					"%s uniform (set %d, binding %d) is %d Byte, shader expects %d Byte",
					p.Name, p.Set, p.Binding, len(p.Data), b.Size,
				)
			}
			found = true
		}
		if !found {
			return nil, fmt.Errorf("pipeline has no binding for %s uniform (set %d, binding %d)", p.Name, p.Set, p.Binding)
		}
	}
	return plan, nil
}

// SceneBindings owns the uniform buffers of a scene and the two descriptor sets pointing at them. Set 0 holds the
// per object transform, set 1 material and light. The sets are written once and reused for every frame.
type SceneBindings struct {
	Sets    []vk.DescriptorSet
	pool    vk.DescriptorPool
	buffers []*com.Buffer
}

func NewSceneBindings(dev *com.Device, po *PipelineObject, scene *model.Scene) (*SceneBindings, error) {
	plan, err := bindingPlan(scene, po.Bindings)
	if err != nil {
		return nil, err
	}
	sb := &SceneBindings{}
	if err = sb.createUniformBuffers(dev, plan); err != nil {
		sb.Destroy(dev)
		return nil, err
	}
	if err = sb.createDescriptorPool(dev.D, po, len(plan)); err != nil {
		sb.Destroy(dev)
		return nil, err
	}
	if sb.Sets, err = allocDescriptorSets(dev.D, sb.pool, po.SetLayouts); err != nil {
		sb.Destroy(dev)
		return nil, err
	}
	sb.writeDescriptorSets(dev.D, plan)
	log.Printf("Bound %d uniform buffers to %d descriptor sets", len(plan), len(sb.Sets))
	return sb, nil
}

// Destroy releases the pool (and with it the sets) and the uniform buffers. The device must be idle.
func (sb *SceneBindings) Destroy(dev *com.Device) {
	if sb.pool != nil {
		vk.DestroyDescriptorPool(dev.D, sb.pool, nil)
		sb.pool = nil
	}
	for _, buf := range sb.buffers {
		com.DestroyBuffer(dev, buf)
	}
	sb.buffers = nil
	sb.Sets = nil
}

func (sb *SceneBindings) createUniformBuffers(dev *com.Device, plan []uniformPayload) error {
	hostVisCoh := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	for _, p := range plan {
		buf, err := com.CreateBuffer(
			dev,
			vk.DeviceSize(len(p.Data)),
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			hostVisCoh,
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		)
		if err != nil {
			return fmt.Errorf("create %s uniform buffer: %w", p.Name, err)
		}
		sb.buffers = append(sb.buffers, buf)
		if err = com.CopyToDeviceBuffer(dev, buf, p.Data); err != nil {
			return fmt.Errorf("write %s uniform buffer: %w", p.Name, err)
		}
	}
	return nil
}

func (sb *SceneBindings) createDescriptorPool(d vk.Device, po *PipelineObject, uniformCount int) error {
	uboPoolSize := vk.DescriptorPoolSize{
		Type:            vk.DescriptorTypeUniformBuffer,
		DescriptorCount: uint32(uniformCount),
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PNext:         nil,
		Flags:         0,
		MaxSets:       uint32(len(po.SetLayouts)),
		PoolSizeCount: 1,
		PPoolSizes:    []vk.DescriptorPoolSize{uboPoolSize},
	}
	pool, err := com.VkCreateDescriptorPool(d, &poolInfo, nil)
	if err != nil {
		return fmt.Errorf("create descriptor pool: %w", err)
	}
	sb.pool = pool
	return nil
}

// allocDescriptorSets allocates one descriptor set per layout from pool.
func allocDescriptorSets(d vk.Device, pool vk.DescriptorPool, layouts []vk.DescriptorSetLayout) ([]vk.DescriptorSet, error) {
	cnt := uint32(len(layouts))
	if cnt == 0 {
		return nil, nil
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		PNext:              nil,
		DescriptorPool:     pool,
		DescriptorSetCount: cnt,
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, cnt)
	if err := vk.Error(vk.AllocateDescriptorSets(d, &allocInfo, &(sets[0]))); err != nil {
		return nil, fmt.Errorf("allocate %d descriptor sets: %w", cnt, err)
	}
	return sets, nil
}

func (sb *SceneBindings) writeDescriptorSets(d vk.Device, plan []uniformPayload) {
	writes := make([]vk.WriteDescriptorSet, len(plan))
	for i, p := range plan {
		bufferInfo := vk.DescriptorBufferInfo{
			Buffer: sb.buffers[i].Handle,
			Offset: 0,
			Range:  sb.buffers[i].Size,
		}
		writes[i] = vk.WriteDescriptorSet{
			SType:            vk.StructureTypeWriteDescriptorSet,
			PNext:            nil,
			DstSet:           sb.Sets[p.Set],
			DstBinding:       p.Binding,
			DstArrayElement:  0,
			DescriptorCount:  1,
			DescriptorType:   vk.DescriptorTypeUniformBuffer,
			PImageInfo:       nil,
			PBufferInfo:      []vk.DescriptorBufferInfo{bufferInfo},
			PTexelBufferView: nil,
		}
	}
	vk.UpdateDescriptorSets(d, uint32(len(writes)), writes, 0, nil)
}
