package raw

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// wgpuBackend is the raw adapter's renderer.Renderer: device, surface, one pipeline and a
// streamed vertex buffer.
type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat    wgpu.TextureFormat
	presentMode      wgpu.PresentMode
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	shaderModule *wgpu.ShaderModule
	layout       *wgpu.PipelineLayout
	pipeline     *wgpu.RenderPipeline

	vertexBuffer   *wgpu.Buffer
	vertexCapacity uint64

	width, height int
	frames        uint64
	last          renderer.FrameStats
}

var _ renderer.Renderer = &wgpuBackend{}

// newWGPUBackend creates the device and surface for s. Failing to get an adapter or device panics,
// there is nothing to fall back to on the raw path.
func newWGPUBackend(s Surface, cfg renderer.Config) *wgpuBackend {
	runtime.LockOSThread()
	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
	}
	if cfg.PresentMode == renderer.PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
	}
	b.surface = b.instance.CreateSurface(s.SurfaceDescriptor())

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.ForceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Presence Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	b.device = d
	b.queue = d.GetQueue()
	return b
}

// configureSurface is required whenever the surface size changes. Caller must hold the mutex.
func (b *wgpuBackend) configureSurface(width, height int) error {
	if width < 1 || height < 1 {
		return nil
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return err
	}
	b.depthTexture = depthTexture
	b.depthTextureView = view
	b.width, b.height = width, height
	return nil
}

// createPipeline builds the single streamed-vertex pipeline. Caller must hold the mutex.
func (b *wgpuBackend) createPipeline() error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Frame Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: frameShader,
		},
	})
	if err != nil {
		return err
	}
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: "Frame Pipeline Layout",
	})
	if err != nil {
		module.Release()
		return err
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Frame Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: vertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 1},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		layout.Release()
		module.Release()
		return err
	}
	b.shaderModule = module
	b.layout = layout
	b.pipeline = created
	return nil
}

// ensureVertexCapacity grows the streamed vertex buffer. Caller must hold the mutex.
func (b *wgpuBackend) ensureVertexCapacity(size uint64) error {
	if size <= b.vertexCapacity && b.vertexBuffer != nil {
		return nil
	}
	capacity := b.vertexCapacity
	if capacity == 0 {
		capacity = 64 * 1024
	}
	for capacity < size {
		capacity *= 2
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Frame Vertex Buffer",
		Size:  capacity,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	if b.vertexBuffer != nil {
		b.vertexBuffer.Release()
	}
	b.vertexBuffer = buf
	b.vertexCapacity = capacity
	return nil
}

// drawFrame uploads the clip-space vertices and submits one render pass.
func (b *wgpuBackend) drawFrame(vertices []float32, background common.Color, stats renderer.FrameStats) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pipeline == nil {
		return renderer.ErrNoRenderer
	}

	count := uint32(len(vertices) * 4 / vertexStride)
	if count > 0 {
		data := common.SliceToBytes(vertices)
		if err := b.ensureVertexCapacity(uint64(len(data))); err != nil {
			return fmt.Errorf("raw: vertex buffer: %w", err)
		}
		b.queue.WriteBuffer(b.vertexBuffer, 0, data)
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(background[0]), G: float64(background[1]), B: float64(background[2]), A: 1.0,
			},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	if count > 0 {
		pass.SetPipeline(b.pipeline)
		pass.SetVertexBuffer(0, b.vertexBuffer, 0, wgpu.WholeSize)
		pass.Draw(count, 1, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.surface.Present()

	b.frames++
	b.last = stats
	return nil
}

func (b *wgpuBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.configureSurface(width, height)
}

func (b *wgpuBackend) Frames() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *wgpuBackend) LastFrame() renderer.FrameStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Release frees every handle in reverse creation order.
func (b *wgpuBackend) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.vertexBuffer != nil {
		b.vertexBuffer.Release()
		b.vertexBuffer = nil
		b.vertexCapacity = 0
	}
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.layout != nil {
		b.layout.Release()
		b.layout = nil
	}
	if b.shaderModule != nil {
		b.shaderModule.Release()
		b.shaderModule = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
	return nil
}

// appendVertex packs one clip-space vertex and its color. Depth is remapped from the
// [-w, w] range mgl32 produces to the [0, w] range WebGPU clips against.
func appendVertex(dst []float32, clip mgl32.Vec4, c common.Color) []float32 {
	z := (clip[2] + clip[3]) * 0.5
	return append(dst, clip[0], clip[1], z, clip[3], c[0], c[1], c[2], c[3])
}
