// Package interaction implements raycast picking shared by desktop pointers and VR controllers:
// hover highlight, click, grab and release against a registry of interactables.
package interaction

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
)

// ErrInvalidMesh is returned when registering an interactable without a mesh id.
var ErrInvalidMesh = errors.New("interactable has no mesh id")

// Layer is the per-frame pick-and-act surface.
type Layer interface {
	// Register binds an interactable to its mesh id, replacing any previous binding.
	//
	// Parameters:
	//   - i: the interactable
	//
	// Returns:
	//   - error: ErrInvalidMesh when i.MeshID is zero
	Register(i Interactable) error

	// Unregister removes the binding for a mesh id. Unknown ids are ignored.
	Unregister(meshID uint64)

	// Lookup returns the interactable bound to a mesh id.
	Lookup(meshID uint64) (Interactable, bool)

	// Hovered returns the id of the currently hovered mesh.
	Hovered() (uint64, bool)

	// Grabbed returns the id of the currently grabbed mesh.
	Grabbed() (uint64, bool)

	// Update casts the pointer's ray into the scene and dispatches hover, click, grab and release.
	// It never panics; failures are logged.
	//
	// Parameters:
	//   - s: the active scene
	//   - p: this tick's pointer
	//   - ctl: this tick's control state
	Update(s scene.Scene, p Pointer, ctl input.ControlState)

	// Reset clears hover and grab state and empties the registry. Used on room switches.
	Reset()
}

type grab struct {
	node   *scene.Node
	parent *scene.Node
}

type layerImpl struct {
	mu *sync.Mutex

	logger     *log.Logger
	hoverColor common.Color

	registry map[uint64]Interactable
	hovered  *scene.Node
	grabbed  *grab
}

var _ Layer = &layerImpl{}

// NewLayer creates an interaction layer.
//
// Parameters:
//   - options: optional configuration
//
// Returns:
//   - Layer: the layer
func NewLayer(options ...LayerBuilderOption) Layer {
	l := &layerImpl{
		mu:         &sync.Mutex{},
		hoverColor: common.RGB(0.25, 0.25, 0.12),
		registry:   make(map[uint64]Interactable),
	}
	for _, opt := range options {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.New(os.Stdout, "[interaction] ", log.LstdFlags|log.Lmicroseconds)
	}
	return l
}

func (l *layerImpl) Register(i Interactable) error {
	if i.MeshID == 0 {
		return ErrInvalidMesh
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registry[i.MeshID] = i
	return nil
}

func (l *layerImpl) Unregister(meshID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.registry, meshID)
}

func (l *layerImpl) Lookup(meshID uint64) (Interactable, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.registry[meshID]
	return i, ok
}

func (l *layerImpl) Hovered() (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hovered == nil {
		return 0, false
	}
	return l.hovered.ID(), true
}

func (l *layerImpl) Grabbed() (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.grabbed == nil {
		return 0, false
	}
	return l.grabbed.node.ID(), true
}

func (l *layerImpl) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hovered != nil {
		l.hovered.ClearHighlight()
		l.hovered = nil
	}
	l.grabbed = nil
	l.registry = make(map[uint64]Interactable)
}

func (l *layerImpl) Update(s scene.Scene, p Pointer, ctl input.ControlState) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Printf("recovered in update: %v", r)
		}
	}()
	if s == nil {
		return
	}
	for _, fn := range l.dispatch(s, p, ctl) {
		fn()
	}
}

// dispatch moves hover and grab state for this tick and returns the callbacks it fired, in
// order. They run after the layer is unlocked, so a callback may register, unregister or reset.
func (l *layerImpl) dispatch(s scene.Scene, p Pointer, ctl input.ControlState) callbacks {
	l.mu.Lock()
	defer l.mu.Unlock()

	var fired callbacks
	if l.grabbed != nil {
		if n, ok := s.Find(l.grabbed.node.ID()); !ok || n != l.grabbed.node {
			l.grabbed = nil
		}
	}

	var target *scene.Node
	var entry Interactable
	if p.Kind != PointerNone {
		if hit, ok := s.Raycast(p.Ray, l.pickFilter); ok {
			if i, registered := l.registry[hit.Node.ID()]; registered {
				target, entry = hit.Node, i
			}
		}
	}

	l.updateHover(target, &fired)

	switch p.Kind {
	case PointerDesktop:
		if ctl.PrimaryPressed && target != nil {
			fired.add(entry.Callbacks.OnInteract, target)
		}
	case PointerController:
		if ctl.PrimaryPressed && target != nil && l.grabbed == nil {
			if entry.Grabbable && p.Anchor != nil {
				l.grab(s, target, p.Anchor, entry, &fired)
			} else {
				fired.add(entry.Callbacks.OnInteract, target)
			}
		}
	}

	if ctl.PrimaryReleased && l.grabbed != nil {
		l.release(s, &fired)
	}
	return fired
}

// pickFilter hides the held object (and anything under it) from the ray.
func (l *layerImpl) pickFilter(n *scene.Node) bool {
	if l.grabbed == nil {
		return true
	}
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == l.grabbed.node {
			return false
		}
	}
	return true
}

func (l *layerImpl) updateHover(target *scene.Node, fired *callbacks) {
	if target == l.hovered {
		return
	}
	if prev := l.hovered; prev != nil {
		prev.ClearHighlight()
		l.hovered = nil
		if i, ok := l.registry[prev.ID()]; ok {
			fired.hover(i.Callbacks.OnHover, prev, false)
		}
	}
	if target != nil {
		target.SetHighlight(l.hoverColor)
		l.hovered = target
		fired.hover(l.registry[target.ID()].Callbacks.OnHover, target, true)
	}
}

func (l *layerImpl) grab(s scene.Scene, n, anchor *scene.Node, entry Interactable, fired *callbacks) {
	parent := n.Parent()
	if err := s.Reparent(n, anchor, true); err != nil {
		l.logger.Printf("grab %q: %v", n.Name(), err)
		return
	}
	l.grabbed = &grab{node: n, parent: parent}
	fired.add(entry.Callbacks.OnGrab, n)
}

func (l *layerImpl) release(s scene.Scene, fired *callbacks) {
	g := l.grabbed
	l.grabbed = nil

	parent := g.parent
	if parent != nil && !parent.Attached() {
		parent = nil
	}
	if err := s.Reparent(g.node, parent, true); err != nil {
		l.logger.Printf("%v", fmt.Errorf("release %q: %w", g.node.Name(), err))
		return
	}
	if i, ok := l.registry[g.node.ID()]; ok {
		fired.add(i.Callbacks.OnRelease, g.node)
	}
}

// callbacks are interactable hooks queued while the layer is locked.
type callbacks []func()

func (c *callbacks) add(fn func(*scene.Node), n *scene.Node) {
	if fn != nil {
		*c = append(*c, func() { fn(n) })
	}
}

func (c *callbacks) hover(fn func(*scene.Node, bool), n *scene.Node, on bool) {
	if fn != nil {
		*c = append(*c, func() { fn(n, on) })
	}
}
