// Package scenegraph is the software renderer adapter. It keeps the scene graph in memory,
// rasterizes it into an RGBA framebuffer and can write snapshots as PNG files.
package scenegraph

import (
	"fmt"
	"image"
	"log"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/anthonynsimon/bild/imgio"
)

type adapter struct {
	mu *sync.Mutex

	cfg       renderer.Config
	logger    *log.Logger
	allocator scene.MemoryAllocator
	target    *framebuffer
}

// Adapter is the scene-graph renderer.Adapter with access to its framebuffer.
type Adapter interface {
	renderer.Adapter

	// Frame returns the most recently rendered image, or nil before the first frame.
	Frame() *image.RGBA

	// Snapshot writes the current frame as a PNG into the snapshot directory.
	//
	// Parameters:
	//   - name: file name without extension
	//
	// Returns:
	//   - string: the written path
	//   - error: error if snapshots are disabled, nothing was rendered, or the write failed
	Snapshot(name string) (string, error)

	// MemoryAllocator exposes allocation statistics for leak checks.
	MemoryAllocator() scene.MemoryAllocator
}

var _ Adapter = &adapter{}

// NewAdapter creates the headless scene-graph adapter.
//
// Parameters:
//   - options: shared renderer options (size, snapshot directory, logger)
//
// Returns:
//   - Adapter: the adapter
func NewAdapter(options ...renderer.RendererBuilderOption) Adapter {
	cfg := renderer.NewConfig("[scenegraph] ", options...)
	return &adapter{
		mu:        &sync.Mutex{},
		cfg:       cfg,
		logger:    cfg.Logger,
		allocator: scene.NewMemoryAllocator(),
	}
}

func (a *adapter) Kind() renderer.Kind {
	return renderer.KindSceneGraph
}

func (a *adapter) Allocator() scene.Allocator {
	return a.allocator
}

func (a *adapter) MemoryAllocator() scene.MemoryAllocator {
	return a.allocator
}

func (a *adapter) CreateRenderer() (renderer.Renderer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.target == nil {
		a.target = newFramebuffer(a.cfg.Width, a.cfg.Height)
	}
	return a.target, nil
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
	fb := a.target
	a.mu.Unlock()
	if fb == nil {
		return renderer.ErrNoRenderer
	}
	if s == nil || c == nil {
		return fmt.Errorf("scenegraph: render needs a scene and a camera")
	}
	fb.draw(s, c)
	return nil
}

func (a *adapter) Dispose(s scene.Scene, r renderer.Renderer) error {
	err := renderer.DisposeScene(s, r, a.allocator)
	if r != nil {
		a.mu.Lock()
		if fb, ok := r.(*framebuffer); ok && fb == a.target {
			a.target = nil
		}
		a.mu.Unlock()
	}
	return err
}

func (a *adapter) Frame() *image.RGBA {
	a.mu.Lock()
	fb := a.target
	a.mu.Unlock()
	if fb == nil {
		return nil
	}
	return fb.image()
}

func (a *adapter) Snapshot(name string) (string, error) {
	if a.cfg.SnapshotDir == "" {
		return "", fmt.Errorf("scenegraph: snapshots disabled")
	}
	img := a.Frame()
	if img == nil {
		return "", fmt.Errorf("scenegraph: nothing rendered yet")
	}
	path := filepath.Join(a.cfg.SnapshotDir, name+".png")
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return "", fmt.Errorf("scenegraph: save snapshot: %w", err)
	}
	a.logger.Printf("snapshot written to %s", path)
	return path, nil
}
