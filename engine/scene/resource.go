package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ResourceKind identifies the type of a GPU-owned resource.
type ResourceKind int

const (
	// ResourceGeometry is vertex and index data.
	ResourceGeometry ResourceKind = iota
	// ResourceMaterial is shading state (uniforms, pipeline selection).
	ResourceMaterial
	// ResourceTexture is image data sampled by a material.
	ResourceTexture
)

// String returns the lowercase kind name.
func (k ResourceKind) String() string {
	switch k {
	case ResourceGeometry:
		return "geometry"
	case ResourceMaterial:
		return "material"
	case ResourceTexture:
		return "texture"
	default:
		return fmt.Sprintf("resource(%d)", int(k))
	}
}

// Handle is an opaque allocator-issued id. Zero means "not uploaded".
type Handle uint64

// ErrUnknownHandle is returned when releasing a handle the allocator never issued or already released.
var ErrUnknownHandle = errors.New("unknown resource handle")

// Resource is implemented by Geometry, Material and Texture.
type Resource interface {
	// Kind returns the resource type.
	Kind() ResourceKind
	// Label returns a debug label.
	Label() string
	// Handle returns the allocator handle, or zero when not uploaded.
	Handle() Handle

	base() *resourceBase
}

// Allocator uploads resources to a renderer backend and releases them.
// Each Renderer Backend Adapter supplies its own implementation.
type Allocator interface {
	// Allocate uploads a resource and returns its handle.
	//
	// Parameters:
	//   - r: the resource to upload
	//
	// Returns:
	//   - Handle: a non-zero handle identifying the upload
	//   - error: error if the backend could not create the resource
	Allocate(r Resource) (Handle, error)

	// Release frees the backend object behind a handle.
	//
	// Parameters:
	//   - h: a handle returned by Allocate
	//
	// Returns:
	//   - error: ErrUnknownHandle if the handle is not live
	Release(h Handle) error

	// Live returns the number of handles that have been allocated and not released.
	Live() int
}

// resourceBase carries the handle and the reference count shared by all resource kinds.
type resourceBase struct {
	kind   ResourceKind
	label  string
	handle Handle
	refs   int
}

func (r *resourceBase) Kind() ResourceKind { return r.kind }

func (r *resourceBase) Label() string { return r.label }

func (r *resourceBase) Handle() Handle { return r.handle }

func (r *resourceBase) base() *resourceBase { return r }

// Geometry is an indexed triangle list with per-vertex normals.
type Geometry struct {
	resourceBase

	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
	Bounds    common.AABB
}

// NewGeometry creates a geometry and computes its bounds.
//
// Parameters:
//   - label: debug label
//   - positions: vertex positions in local space
//   - normals: per-vertex normals (same length as positions)
//   - indices: triangle list indices
//
// Returns:
//   - *Geometry: the new, not yet uploaded geometry
func NewGeometry(label string, positions, normals []mgl32.Vec3, indices []uint32) *Geometry {
	g := &Geometry{
		resourceBase: resourceBase{kind: ResourceGeometry, label: label},
		Positions:    positions,
		Normals:      normals,
		Indices:      indices,
		Bounds:       common.EmptyAABB(),
	}
	for _, p := range positions {
		g.Bounds = g.Bounds.Extend(p)
	}
	return g
}

// TriangleCount returns the number of triangles in the index list.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Material holds flat shading parameters.
type Material struct {
	resourceBase

	// Color is the base albedo.
	Color common.Color
	// Emissive is added after lighting.
	Emissive common.Color
	// Unlit skips lighting entirely.
	Unlit bool
	// Texture modulates Color when set.
	Texture *Texture
}

// NewMaterial creates a lit material of the given color.
func NewMaterial(label string, color common.Color) *Material {
	return &Material{
		resourceBase: resourceBase{kind: ResourceMaterial, label: label},
		Color:        color,
	}
}

// Texture holds RGBA8 pixel data.
type Texture struct {
	resourceBase

	Width  int
	Height int
	Pixels []byte
}

// NewTexture creates a texture from RGBA8 pixels. Pixels must hold width*height*4 bytes.
func NewTexture(label string, width, height int, pixels []byte) *Texture {
	return &Texture{
		resourceBase: resourceBase{kind: ResourceTexture, label: label},
		Width:        width,
		Height:       height,
		Pixels:       pixels,
	}
}

// Sample returns the texel at the given UV coordinate with wrap addressing.
func (t *Texture) Sample(u, v float32) common.Color {
	if t == nil || t.Width == 0 || t.Height == 0 || len(t.Pixels) < t.Width*t.Height*4 {
		return common.Color{1, 1, 1, 1}
	}
	x := int(u*float32(t.Width)) % t.Width
	y := int(v*float32(t.Height)) % t.Height
	if x < 0 {
		x += t.Width
	}
	if y < 0 {
		y += t.Height
	}
	i := (y*t.Width + x) * 4
	return common.Color{
		float32(t.Pixels[i]) / 255,
		float32(t.Pixels[i+1]) / 255,
		float32(t.Pixels[i+2]) / 255,
		float32(t.Pixels[i+3]) / 255,
	}
}

// acquire increments the reference count, uploading on the first reference.
func acquire(a Allocator, r Resource) error {
	b := r.base()
	if b.refs == 0 && b.handle == 0 && a != nil {
		h, err := a.Allocate(r)
		if err != nil {
			return fmt.Errorf("allocate %s %q: %w", b.kind, b.label, err)
		}
		b.handle = h
	}
	b.refs++
	return nil
}

// release decrements the reference count, releasing the backend object on the last reference.
func release(a Allocator, r Resource) error {
	b := r.base()
	if b.refs == 0 {
		return nil
	}
	b.refs--
	if b.refs > 0 || b.handle == 0 {
		return nil
	}
	h := b.handle
	b.handle = 0
	if a == nil {
		return nil
	}
	if err := a.Release(h); err != nil {
		return fmt.Errorf("release %s %q: %w", b.kind, b.label, err)
	}
	return nil
}

// memoryAllocator tracks handles in memory. It backs headless adapters and tests.
type memoryAllocator struct {
	mu        *sync.Mutex
	next      Handle
	live      map[Handle]Resource
	allocated int
	released  int
}

// MemoryAllocator is an Allocator that keeps resources in process memory.
type MemoryAllocator interface {
	Allocator

	// Resource returns the resource behind a live handle.
	Resource(h Handle) (Resource, bool)

	// Stats returns the total number of allocations and releases performed.
	Stats() (allocated, released int)
}

var _ MemoryAllocator = &memoryAllocator{}

// NewMemoryAllocator creates an empty in-memory allocator.
func NewMemoryAllocator() MemoryAllocator {
	return &memoryAllocator{
		mu:   &sync.Mutex{},
		live: make(map[Handle]Resource),
	}
}

func (m *memoryAllocator) Allocate(r Resource) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.live[m.next] = r
	m.allocated++
	return m.next, nil
}

func (m *memoryAllocator) Release(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[h]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	delete(m.live, h)
	m.released++
	return nil
}

func (m *memoryAllocator) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

func (m *memoryAllocator) Resource(h Handle) (Resource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.live[h]
	return r, ok
}

func (m *memoryAllocator) Stats() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocated, m.released
}
