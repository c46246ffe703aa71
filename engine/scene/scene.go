package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/light"
)

// ErrNodeAttached is returned when adding a node that already belongs to a scene.
var ErrNodeAttached = errors.New("node already attached to a scene")

// ErrNodeDetached is returned when an operation needs a node that is registered in this scene.
var ErrNodeDetached = errors.New("node not attached to this scene")

// Hit is the result of a successful raycast.
type Hit struct {
	// Node is the first mesh hit along the ray.
	Node *Node
	// Distance is the ray parameter of the entry point.
	Distance float32
}

// Scene is a graph of nodes whose mesh resources are uploaded through an Allocator.
// Every resource a mesh references is acquired when the mesh is added and released when
// it is removed, so a scene never holds a resource that no live node uses.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Root returns the root node. The root is never removed.
	Root() *Node

	// Allocator returns the allocator that owns this scene's GPU resources.
	Allocator() Allocator

	// Add registers a detached node subtree under parent (root when nil), assigning ids and
	// acquiring every geometry, material and texture it references.
	//
	// Parameters:
	//   - n: the detached subtree root
	//   - parent: the attached parent, or nil for the scene root
	//
	// Returns:
	//   - error: ErrNodeAttached, ErrNodeDetached for a foreign parent, or an allocation error
	Add(n *Node, parent *Node) error

	// Remove detaches a subtree and releases every resource it references.
	//
	// Parameters:
	//   - n: an attached node (the root cannot be removed)
	//
	// Returns:
	//   - error: ErrNodeDetached or a release error
	Remove(n *Node) error

	// Reparent moves an attached node under another attached node without releasing resources.
	// When keepWorldPosition is true the node's local position is adjusted so it stays in place.
	//
	// Parameters:
	//   - n: the node to move
	//   - parent: the new parent (root when nil)
	//   - keepWorldPosition: preserve the world-space position across the move
	//
	// Returns:
	//   - error: ErrNodeDetached if either node is foreign
	Reparent(n *Node, parent *Node, keepWorldPosition bool) error

	// Find returns the node with the given id.
	Find(id uint64) (*Node, bool)

	// Count returns the number of registered nodes, excluding the root.
	Count() int

	// Meshes returns every registered mesh node in depth-first order.
	Meshes() []*Node

	// Raycast returns the nearest visible, pickable mesh hit by the ray.
	//
	// Parameters:
	//   - ray: the world-space ray
	//   - filter: optional predicate; nodes for which it returns false are skipped
	//
	// Returns:
	//   - Hit: the nearest hit
	//   - bool: false when nothing was hit
	Raycast(ray common.Ray, filter func(*Node) bool) (Hit, bool)

	// AddLight adds a light to the scene.
	AddLight(l light.Light)

	// RemoveLight removes a light from the scene.
	RemoveLight(l light.Light)

	// Lights returns a copy of the scene's lights.
	Lights() []light.Light

	// Background returns the clear color.
	Background() common.Color

	// SetBackground sets the clear color.
	SetBackground(c common.Color)

	// Ambient returns the ambient light color.
	Ambient() common.Color

	// SetAmbient sets the ambient light color.
	SetAmbient(c common.Color)

	// Dispose removes every node and light and releases all resources.
	//
	// Returns:
	//   - error: the first release error, after attempting every release
	Dispose() error
}

type sceneImpl struct {
	mu *sync.Mutex

	name      string
	root      *Node
	allocator Allocator
	registry  map[uint64]*Node
	nextID    uint64

	lights     []light.Light
	background common.Color
	ambient    common.Color
}

var _ Scene = &sceneImpl{}

// NewScene creates an empty Scene. Without WithAllocator the scene uses a MemoryAllocator.
//
// Parameters:
//   - name: the scene identifier
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &sceneImpl{
		mu:         &sync.Mutex{},
		name:       name,
		registry:   make(map[uint64]*Node),
		nextID:     1,
		background: common.RGB(0.05, 0.05, 0.08),
		ambient:    common.RGB(0.25, 0.25, 0.25),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.allocator == nil {
		s.allocator = NewMemoryAllocator()
	}
	s.root = NewNode(name + ":root")
	s.root.scene = s
	return s
}

func (s *sceneImpl) Name() string {
	return s.name
}

func (s *sceneImpl) Root() *Node {
	return s.root
}

func (s *sceneImpl) Allocator() Allocator {
	return s.allocator
}

func (s *sceneImpl) Add(n *Node, parent *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n == nil {
		return fmt.Errorf("scene %s: add nil node", s.name)
	}
	if n.scene != nil {
		return fmt.Errorf("scene %s: add %q: %w", s.name, n.name, ErrNodeAttached)
	}
	if parent == nil {
		parent = s.root
	}
	if parent.scene != s {
		return fmt.Errorf("scene %s: parent %q: %w", s.name, parent.name, ErrNodeDetached)
	}

	var acquired []*Node
	var addErr error
	n.Walk(func(c *Node) bool {
		if addErr != nil {
			return false
		}
		if err := s.acquireNode(c); err != nil {
			addErr = err
			return false
		}
		acquired = append(acquired, c)
		return true
	})
	if addErr != nil {
		for _, c := range acquired {
			_ = s.releaseNode(c)
		}
		return fmt.Errorf("scene %s: add %q: %w", s.name, n.name, addErr)
	}

	n.parent = parent
	parent.children = append(parent.children, n)
	return nil
}

// acquireNode registers one node and acquires its resources. Caller must hold the mutex.
func (s *sceneImpl) acquireNode(n *Node) error {
	if n.geometry != nil {
		if err := acquire(s.allocator, n.geometry); err != nil {
			return err
		}
	}
	if n.material != nil {
		if err := acquire(s.allocator, n.material); err != nil {
			if n.geometry != nil {
				_ = release(s.allocator, n.geometry)
			}
			return err
		}
		if n.material.Texture != nil {
			if err := acquire(s.allocator, n.material.Texture); err != nil {
				_ = release(s.allocator, n.material)
				if n.geometry != nil {
					_ = release(s.allocator, n.geometry)
				}
				return err
			}
		}
	}
	n.id = s.nextID
	s.nextID++
	n.scene = s
	s.registry[n.id] = n
	return nil
}

// releaseNode unregisters one node and releases its resources. Caller must hold the mutex.
func (s *sceneImpl) releaseNode(n *Node) error {
	var errs []error
	if n.material != nil {
		if n.material.Texture != nil {
			if err := release(s.allocator, n.material.Texture); err != nil {
				errs = append(errs, err)
			}
		}
		if err := release(s.allocator, n.material); err != nil {
			errs = append(errs, err)
		}
	}
	if n.geometry != nil {
		if err := release(s.allocator, n.geometry); err != nil {
			errs = append(errs, err)
		}
	}
	delete(s.registry, n.id)
	n.id = 0
	n.scene = nil
	return errors.Join(errs...)
}

func (s *sceneImpl) Remove(n *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(n)
}

// removeLocked detaches and releases a subtree. Caller must hold the mutex.
func (s *sceneImpl) removeLocked(n *Node) error {
	if n == nil || n.scene != s || n == s.root {
		return ErrNodeDetached
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = nil

	var errs []error
	n.Walk(func(c *Node) bool {
		if err := s.releaseNode(c); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	return errors.Join(errs...)
}

func (s *sceneImpl) Reparent(n *Node, parent *Node, keepWorldPosition bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parent == nil {
		parent = s.root
	}
	if n == nil || n.scene != s || n == s.root || parent.scene != s {
		return ErrNodeDetached
	}
	if n.parent == parent {
		return nil
	}
	for cur := parent; cur != nil; cur = cur.parent {
		if cur == n {
			return fmt.Errorf("scene %s: reparent %q under its own descendant", s.name, n.name)
		}
	}

	world := n.WorldPosition()
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	parent.children = append(parent.children, n)

	if keepWorldPosition {
		inv := parent.WorldMatrix().Inv()
		n.transform.Position = inv.Mul4x1(world.Vec4(1)).Vec3()
	}
	return nil
}

func (s *sceneImpl) Find(id uint64) (*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.registry[id]
	return n, ok
}

func (s *sceneImpl) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registry)
}

func (s *sceneImpl) Meshes() []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Node
	s.root.Walk(func(n *Node) bool {
		if n.IsMesh() {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (s *sceneImpl) Raycast(ray common.Ray, filter func(*Node) bool) (Hit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best Hit
	found := false
	s.root.Walk(func(n *Node) bool {
		if !n.visible {
			return false
		}
		if !n.IsMesh() || !n.pickable {
			return true
		}
		if filter != nil && !filter(n) {
			return true
		}
		t, ok := n.WorldBounds().IntersectRay(ray)
		if ok && (!found || t < best.Distance) {
			best = Hit{Node: n, Distance: t}
			found = true
		}
		return true
	})
	return best, found
}

func (s *sceneImpl) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *sceneImpl) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.lights {
		if existing == l {
			s.lights = append(s.lights[:i], s.lights[i+1:]...)
			return
		}
	}
}

func (s *sceneImpl) Lights() []light.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *sceneImpl) Background() common.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background
}

func (s *sceneImpl) SetBackground(c common.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
}

func (s *sceneImpl) Ambient() common.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ambient
}

func (s *sceneImpl) SetAmbient(c common.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = c
}

func (s *sceneImpl) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, c := range s.root.Children() {
		if err := s.removeLocked(c); err != nil {
			errs = append(errs, err)
		}
	}
	s.lights = nil
	return errors.Join(errs...)
}
