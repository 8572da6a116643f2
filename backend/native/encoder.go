//go:build !nogpu

package native

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	speedy "github.com/balarayen/speedy-vision"
	"github.com/balarayen/speedy-vision/backend"
	"github.com/balarayen/speedy-vision/capacity"
	"github.com/balarayen/speedy-vision/wire"
)

//go:embed shaders/encode.wgsl
var encodeShaderWGSL string

// configWords is the size of the shader Config uniform in u32 words.
const configWords = 8

// Encoder is the GPU keypoint encoder. It owns a compute-only Vulkan
// device and dispatches the encoding passes through gogpu/wgpu/hal.
//
// Construct with NewEncoder; the zero value is not usable.
type Encoder struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// Compute pipelines, one per shader entry point.
	shaderModule   hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	initSkips      hal.ComputePipeline
	refineSkips    hal.ComputePipeline
	encode         hal.ComputePipeline
	upload         hal.ComputePipeline

	// Compiled SPIR-V (cached for verification)
	spirvCode []uint32

	cfg    backend.PassConfig
	length int

	// Persistent buffers sized to the encoder texture.
	encodedBuf hal.Buffer
	stagingBuf hal.Buffer

	// buffered readback keeps one page of latency
	page    []byte
	hasPage bool

	initialized bool
	closed      bool
}

var _ speedy.Encoder = (*Encoder)(nil)

// NewEncoder opens a compute-capable GPU device and builds the encoding
// pipelines. Returns an error when no usable device is present; callers
// normally fall back to the software encoder then.
func NewEncoder() (*Encoder, error) {
	e := &Encoder{cfg: backend.DefaultPassConfig()}
	if err := e.initGPU(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Name returns "native".
func (e *Encoder) Name() string { return backend.BackendNative }

// Init marks the encoder ready. The device and pipelines were already
// built by NewEncoder, so calling Init again is a no-op.
func (e *Encoder) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return backend.ErrEncoderClosed
	}
	e.initialized = true
	return nil
}

// Close releases all GPU resources. The encoder must not be used after
// Close.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyTextureBuffers()
	e.destroyPipelines()
	if e.device != nil {
		e.device.Destroy()
		e.device = nil
	}
	if e.instance != nil {
		e.instance.Destroy()
		e.instance = nil
	}
	e.queue = nil
	e.page = nil
	e.hasPage = false
	e.initialized = false
	e.closed = true
}

// EncoderLength returns the current side length of the encoder texture.
func (e *Encoder) EncoderLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.length
}

// ResizeEncoder reallocates the encoder storage and staging buffers. The
// previous content is discarded, including any buffered readback page.
func (e *Encoder) ResizeEncoder(length int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return backend.ErrEncoderClosed
	}
	if !e.initialized {
		return backend.ErrNotInitialized
	}
	if length < capacity.MinEncoderLength || length > capacity.MaxEncoderLength {
		return fmt.Errorf("%w: %d not in [%d, %d]",
			backend.ErrInvalidLength, length, capacity.MinEncoderLength, capacity.MaxEncoderLength)
	}

	e.destroyTextureBuffers()
	size := uint64(length * length * wire.BytesPerPixel)

	encodedBuf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "kp_encoded", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create encoder buffer: %w", err)
	}
	stagingBuf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "kp_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		e.device.DestroyBuffer(encodedBuf)
		return fmt.Errorf("native: create staging buffer: %w", err)
	}

	e.encodedBuf = encodedBuf
	e.stagingBuf = stagingBuf
	e.length = length
	e.page = nil
	e.hasPage = false
	return nil
}

func (e *Encoder) initGPU() error {
	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("native: vulkan backend not available")
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("native: create instance: %w", err)
	}
	e.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("native: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("native: open device: %w", err)
	}
	e.device = openDev.Device
	e.queue = openDev.Queue

	if err := e.createPipelines(); err != nil {
		return err
	}

	speedy.Logger().Info("native: GPU encoder initialized", "adapter", selected.Info.Name)
	return nil
}

func (e *Encoder) createPipelines() error {
	// Compile WGSL to SPIR-V
	spirvBytes, err := naga.Compile(encodeShaderWGSL)
	if err != nil {
		return fmt.Errorf("native: compile encode shader: %w", err)
	}
	e.spirvCode = make([]uint32, len(spirvBytes)/4)
	for i := range e.spirvCode {
		e.spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	shaderModule, err := e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: "kp_encode_shader",
		Source: hal.ShaderSource{
			SPIRV: e.spirvCode,
		},
	})
	if err != nil {
		return fmt.Errorf("native: create shader module: %w", err)
	}
	e.shaderModule = shaderModule

	bindLayout, err := e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "kp_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("native: create bind group layout: %w", err)
	}
	e.bindLayout = bindLayout

	pipelineLayout, err := e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "kp_pipeline_layout", BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout: %w", err)
	}
	e.pipelineLayout = pipelineLayout

	entryPoints := []struct {
		name string
		dst  *hal.ComputePipeline
	}{
		{"cs_init_skips", &e.initSkips},
		{"cs_refine_skips", &e.refineSkips},
		{"cs_encode", &e.encode},
		{"cs_upload", &e.upload},
	}
	for _, ep := range entryPoints {
		pipeline, err := e.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label: "kp_" + ep.name, Layout: e.pipelineLayout,
			Compute: hal.ComputeState{Module: e.shaderModule, EntryPoint: ep.name},
		})
		if err != nil {
			return fmt.Errorf("native: create %s pipeline: %w", ep.name, err)
		}
		*ep.dst = pipeline
	}
	return nil
}

func (e *Encoder) destroyPipelines() {
	if e.device == nil {
		return
	}
	for _, p := range []hal.ComputePipeline{e.initSkips, e.refineSkips, e.encode, e.upload} {
		if p != nil {
			e.device.DestroyComputePipeline(p)
		}
	}
	e.initSkips, e.refineSkips, e.encode, e.upload = nil, nil, nil, nil
	if e.pipelineLayout != nil {
		e.device.DestroyPipelineLayout(e.pipelineLayout)
		e.pipelineLayout = nil
	}
	if e.bindLayout != nil {
		e.device.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
	if e.shaderModule != nil {
		e.device.DestroyShaderModule(e.shaderModule)
		e.shaderModule = nil
	}
}

func (e *Encoder) destroyTextureBuffers() {
	if e.device == nil {
		return
	}
	if e.encodedBuf != nil {
		e.device.DestroyBuffer(e.encodedBuf)
		e.encodedBuf = nil
	}
	if e.stagingBuf != nil {
		e.device.DestroyBuffer(e.stagingBuf)
		e.stagingBuf = nil
	}
	e.length = 0
}
