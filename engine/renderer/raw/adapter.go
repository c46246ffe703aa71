// Package raw is the low-level renderer adapter: it draws straight to a wgpu surface on a
// GLFW window with a single pipeline, transforming and shading vertices on the CPU.
package raw

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// Surface is the window the adapter presents to. engine/window.Window satisfies it.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

type adapter struct {
	mu *sync.Mutex

	cfg       renderer.Config
	logger    *log.Logger
	surface   Surface
	allocator *gpuAllocator
	backend   *wgpuBackend

	vertices []float32
}

var _ renderer.Adapter = &adapter{}

// NewAdapter creates the raw adapter for a window. No GPU work happens until CreateRenderer.
//
// Parameters:
//   - surface: the window to present to
//   - options: shared renderer options
//
// Returns:
//   - renderer.Adapter: the adapter
func NewAdapter(surface Surface, options ...renderer.RendererBuilderOption) renderer.Adapter {
	opts := append([]renderer.RendererBuilderOption{
		renderer.WithSize(surface.Width(), surface.Height()),
	}, options...)
	cfg := renderer.NewConfig("[raw] ", opts...)
	return &adapter{
		mu:        &sync.Mutex{},
		cfg:       cfg,
		logger:    cfg.Logger,
		surface:   surface,
		allocator: newGPUAllocator(),
	}
}

func (a *adapter) Kind() renderer.Kind {
	return renderer.KindRaw
}

func (a *adapter) Allocator() scene.Allocator {
	return a.allocator
}

func (a *adapter) CreateRenderer() (renderer.Renderer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.backend != nil {
		return a.backend, nil
	}

	b := newWGPUBackend(a.surface, a.cfg)
	b.mu.Lock()
	err := b.configureSurface(a.surface.Width(), a.surface.Height())
	if err == nil {
		err = b.createPipeline()
	}
	b.mu.Unlock()
	if err != nil {
		_ = b.Release()
		return nil, fmt.Errorf("raw: create renderer: %w", err)
	}
	if err := a.allocator.attach(b.device, b.queue); err != nil {
		a.allocator.detach()
		_ = b.Release()
		return nil, fmt.Errorf("raw: upload pending resources: %w", err)
	}
	a.backend = b
	a.logger.Printf("wgpu renderer ready (%dx%d)", a.surface.Width(), a.surface.Height())
	return b, nil
}

func (a *adapter) CreateScene(name string, options ...scene.SceneBuilderOption) scene.Scene {
	opts := append(append([]scene.SceneBuilderOption{}, options...), scene.WithAllocator(a.allocator))
	return scene.NewScene(name, opts...)
}

func (a *adapter) CreateCamera(options ...camera.CameraBuilderOption) camera.Camera {
	opts := append([]camera.CameraBuilderOption{
		camera.WithAspect(float32(a.cfg.Width) / float32(a.cfg.Height)),
	}, options...)
	return camera.NewCamera(opts...)
}

func (a *adapter) Render(s scene.Scene, c camera.Camera) error {
	a.mu.Lock()
	b := a.backend
	a.mu.Unlock()
	if b == nil {
		return renderer.ErrNoRenderer
	}

	w, h := b.Size()
	if w > 0 && h > 0 {
		c.SetAspect(float32(w) / float32(h))
	}
	c.Update()
	viewProj := c.ViewProjectionMatrix()

	a.vertices = a.vertices[:0]
	stats := renderer.VisitTriangles(s, viewProj, func(t renderer.Triangle) {
		a.vertices = appendVertex(a.vertices, viewProj.Mul4x1(t.A.Vec4(1)), t.Color)
		a.vertices = appendVertex(a.vertices, viewProj.Mul4x1(t.B.Vec4(1)), t.Color)
		a.vertices = appendVertex(a.vertices, viewProj.Mul4x1(t.C.Vec4(1)), t.Color)
	})
	return b.drawFrame(a.vertices, s.Background(), stats)
}

func (a *adapter) Dispose(s scene.Scene, r renderer.Renderer) error {
	var sceneErr error
	if s != nil {
		sceneErr = renderer.DisposeScene(s, nil, a.allocator)
	}
	if r != nil {
		a.mu.Lock()
		if r == renderer.Renderer(a.backend) {
			a.allocator.detach()
			a.backend = nil
		}
		a.mu.Unlock()
		if err := r.Release(); err != nil {
			return fmt.Errorf("raw: release renderer: %w", err)
		}
	}
	return sceneErr
}
