package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
)

// ErrLeakedResources is returned by Dispose when handles are still live after every node was released.
var ErrLeakedResources = errors.New("renderer resources still live after dispose")

// ErrNoRenderer is returned by Render before CreateRenderer has succeeded.
var ErrNoRenderer = errors.New("renderer not created")

// Renderer is the drawing context an Adapter creates once per module load.
type Renderer interface {
	// Size returns the framebuffer size in pixels.
	Size() (width, height int)

	// Resize reconfigures the framebuffer.
	Resize(width, height int)

	// Frames returns the number of frames rendered so far.
	Frames() uint64

	// LastFrame returns statistics of the most recent frame.
	LastFrame() FrameStats

	// Release frees the context itself (surface, device or framebuffer).
	Release() error
}

// FrameStats counts what a frame drew.
type FrameStats struct {
	Meshes    int
	Culled    int
	Triangles int
}

// Adapter wraps exactly one rendering engine behind the calls the rest of the engine makes.
// Nothing above this layer inspects Kind to change behaviour.
type Adapter interface {
	// Kind identifies the wrapped engine.
	Kind() Kind

	// CreateRenderer creates the drawing context. Calling it twice returns the existing one.
	//
	// Returns:
	//   - Renderer: the drawing context
	//   - error: error if the backend could not be initialized
	CreateRenderer() (Renderer, error)

	// CreateScene creates a scene whose resources are allocated by this adapter.
	//
	// Parameters:
	//   - name: the scene name
	//   - options: extra scene options (the allocator option is always applied last)
	//
	// Returns:
	//   - scene.Scene: the new scene
	CreateScene(name string, options ...scene.SceneBuilderOption) scene.Scene

	// CreateCamera creates a camera whose aspect matches the framebuffer.
	CreateCamera(options ...camera.CameraBuilderOption) camera.Camera

	// Render draws one frame of s as seen from c.
	//
	// Returns:
	//   - error: ErrNoRenderer before CreateRenderer, or a backend error
	Render(s scene.Scene, c camera.Camera) error

	// Dispose releases every geometry, material and texture owned by s, then the renderer.
	// Either argument may be nil.
	//
	// Returns:
	//   - error: the joined release errors, or ErrLeakedResources if handles survived
	Dispose(s scene.Scene, r Renderer) error

	// Allocator returns the allocator backing this adapter's scenes.
	Allocator() scene.Allocator
}

// DisposeScene is the shared teardown walk: it disposes the scene, releases the renderer
// and reports handles the allocator still holds.
//
// Parameters:
//   - s: the scene to tear down (may be nil)
//   - r: the renderer to release (may be nil)
//   - alloc: the allocator whose Live count must reach zero
//
// Returns:
//   - error: joined errors from each step
func DisposeScene(s scene.Scene, r Renderer, alloc scene.Allocator) error {
	var errs []error
	if s != nil {
		if err := s.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose scene %s: %w", s.Name(), err))
		}
	}
	if r != nil {
		if err := r.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release renderer: %w", err))
		}
	}
	if s != nil && alloc != nil && alloc.Live() > 0 {
		errs = append(errs, fmt.Errorf("%w: %d handles", ErrLeakedResources, alloc.Live()))
	}
	return errors.Join(errs...)
}
