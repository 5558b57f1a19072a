package renderer

import (
	"fmt"
	"io"
	"log"

	com "rt_renderer/common"
	"rt_renderer/model"

	vk "github.com/goki/vulkan"
	"github.com/schollz/progressbar/v3"
)

// BufferUploader creates immutable device buffers holding payload. The Vulkan implementation copies through a
// host visible staging buffer.
type BufferUploader interface {
	UploadBuffer(name string, usage vk.BufferUsageFlags, payload []byte) (*com.Buffer, error)
	DestroyBuffer(buf *com.Buffer)
}

// GpuModel is the drawable form of a model. Its buffers are never written after the upload.
type GpuModel struct {
	Name         string
	VertexBuffer *com.Buffer
	IndexBuffer  *com.Buffer
	VertexCount  uint32
	IndexCount   uint32
}

func (m *GpuModel) IsIndexed() bool {
	return m.IndexBuffer != nil
}

// UploadScene validates every mesh and uploads one vertex buffer and at most one index buffer per model. Progress
// in Byte is written to progress when it is not nil. On failure the buffers uploaded so far are released.
func UploadScene(up BufferUploader, scene *model.Scene, progress io.Writer) ([]*GpuModel, error) {
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}

	var total int64
	for _, m := range scene.Models {
		total += int64(len(m.VertexBytes()) + len(m.IndexBytes()))
	}
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("uploading geometry"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
	defer func() { _ = bar.Finish() }()

	gpuModels := make([]*GpuModel, 0, len(scene.Models))
	for _, m := range scene.Models {
		gm, err := uploadModel(up, m, bar)
		if err != nil {
			ReleaseScene(up, gpuModels)
			return nil, err
		}
		gpuModels = append(gpuModels, gm)
	}
	log.Printf("Uploaded %d models (%d Byte)", len(gpuModels), total)
	return gpuModels, nil
}

func uploadModel(up BufferUploader, m *model.Model, bar *progressbar.ProgressBar) (*GpuModel, error) {
	gm := &GpuModel{
		Name:        m.Name,
		VertexCount: uint32(len(m.Mesh.Vertices)),
	}
	vertexBytes := m.VertexBytes()
	vb, err := up.UploadBuffer(m.Name, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), vertexBytes)
	if err != nil {
		return nil, fmt.Errorf("upload vertex buffer of '%s': %w", m.Name, err)
	}
	gm.VertexBuffer = vb
	_ = bar.Add64(int64(len(vertexBytes)))

	if idx := m.IndexBytes(); idx != nil {
		ib, err := up.UploadBuffer(m.Name, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), idx)
		if err != nil {
			up.DestroyBuffer(vb)
			return nil, fmt.Errorf("upload index buffer of '%s': %w", m.Name, err)
		}
		gm.IndexBuffer = ib
		gm.IndexCount = uint32(len(m.Mesh.Indices))
		_ = bar.Add64(int64(len(idx)))
	}
	return gm, nil
}

// ReleaseScene destroys the buffers of all models. Nothing may still use them on the device.
func ReleaseScene(up BufferUploader, models []*GpuModel) {
	for _, m := range models {
		if m.IndexBuffer != nil {
			up.DestroyBuffer(m.IndexBuffer)
			m.IndexBuffer = nil
		}
		if m.VertexBuffer != nil {
			up.DestroyBuffer(m.VertexBuffer)
			m.VertexBuffer = nil
		}
	}
}
