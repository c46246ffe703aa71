// Package roomworld is the social room module: procedural and authored rooms on the
// scene-graph adapter, switchable at runtime, with seats to sit on and small props to pick up.
package roomworld

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/interaction"
	"github.com/Carmen-Shannon/oxy-presence/engine/module"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Name is the registration key of the module.
const Name = "room-world"

// DefaultRooms is one room per archetype.
var DefaultRooms = []string{
	"sanctuary", "prayer circle", "lounge", "classroom", "recording booth", "banquet hall", "courtyard",
}

// grabbable prefabs can be carried with a VR controller.
var grabbable = map[string]bool{"candle": true, "crate": true}

// RoomWorld is the room module.
type RoomWorld interface {
	module.Module
	module.RoomSwitcher

	// Current returns the name of the room the module last bound its interactables to.
	Current() string

	// Seated returns the prefab the local user last sat on.
	Seated() (*scene.Node, bool)
}

type roomWorld struct {
	mu     *sync.Mutex
	logger *log.Logger

	initial     string
	rooms       []string
	localAvatar bool
	seatHeight  float32

	host   module.Host
	scene  scene.Scene
	camera camera.Camera

	current    string
	registered []uint64
	seat       *scene.Node
}

var _ RoomWorld = &roomWorld{}

// New creates the room module.
//
// Parameters:
//   - options: optional configuration
//
// Returns:
//   - RoomWorld: the module, ready to register
func New(options ...RoomWorldBuilderOption) RoomWorld {
	w := &roomWorld{
		mu:          &sync.Mutex{},
		logger:      log.New(os.Stdout, "[room-world] ", log.LstdFlags|log.Lmicroseconds),
		initial:     "lounge",
		rooms:       DefaultRooms,
		localAvatar: true,
		seatHeight:  1.2,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *roomWorld) Name() string                { return Name }
func (w *roomWorld) RendererKind() renderer.Kind { return renderer.KindSceneGraph }
func (w *roomWorld) SupportsRoomSwitching() bool { return true }
func (w *roomWorld) IsStandalone() bool          { return false }

func (w *roomWorld) Rooms() []string {
	return append([]string(nil), w.rooms...)
}

func (w *roomWorld) Init(s scene.Scene, cam camera.Camera, host module.Host) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.host, w.scene, w.camera = host, s, cam
	w.current, w.registered, w.seat = "", nil, nil

	if w.localAvatar {
		if _, err := host.Avatars().CreateLocalAvatar(); err != nil {
			w.logger.Printf("local avatar unavailable: %v", err)
		}
	}
	r, err := host.Rooms().LoadRoom(host.Context(), w.initial, nil)
	if err != nil {
		return fmt.Errorf("load %s: %w", w.initial, err)
	}
	w.bindLocked(r)
	return nil
}

// SwitchRoom enables a loaded room immediately and otherwise queues an asynchronous build.
func (w *roomWorld) SwitchRoom(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.host == nil {
		return room.ErrRoomNotLoaded
	}
	rooms := w.host.Rooms()
	if _, ok := rooms.Room(name); ok {
		r, err := rooms.SwitchToRoom(context.Background(), name)
		if err != nil {
			return err
		}
		w.bindLocked(r)
		return nil
	}
	_, err := rooms.RequestLoad(name, nil)
	return err
}

func (w *roomWorld) Update(delta float32) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("recovered from panic in room-world update: %v", r)
		}
	}()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.host == nil {
		return
	}
	if r, ok := w.host.Rooms().Active(); ok && r.Name != w.current {
		w.bindLocked(r)
	}
}

// bindLocked replaces the interactables with the ones for r.
func (w *roomWorld) bindLocked(r *room.Room) {
	layer := w.host.Interaction()
	for _, id := range w.registered {
		layer.Unregister(id)
	}
	w.registered = w.registered[:0]
	w.seat = nil
	w.current = r.Name

	for _, o := range r.Objects() {
		prefab, _ := o.Tag(room.TagPrefab)
		role, _ := o.Tag(room.TagRole)
		var cb interaction.Callbacks
		switch {
		case role == room.RoleSeating:
			seat := o
			cb.OnInteract = func(*scene.Node) { w.sit(seat) }
		case grabbable[prefab]:
		default:
			continue
		}
		o.Walk(func(n *scene.Node) bool {
			if !n.IsMesh() || !n.Pickable() {
				return true
			}
			i := interaction.Interactable{MeshID: n.ID(), Grabbable: grabbable[prefab], Callbacks: cb}
			if err := layer.Register(i); err != nil {
				w.logger.Printf("register %s: %v", n.Name(), err)
				return true
			}
			w.registered = append(w.registered, n.ID())
			return true
		})
	}
	w.logger.Printf("room %s bound with %d interactables", r.Name, len(w.registered))
}

// sit moves the camera onto a seat. It runs from the interaction layer inside the tick.
func (w *roomWorld) sit(seat *scene.Node) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.camera == nil {
		return
	}
	fp, ok := w.camera.Controller().(camera.FirstPersonController)
	if !ok {
		return
	}
	fp.SetPosition(seat.WorldPosition().Add(mgl32.Vec3{0, w.seatHeight, 0}))
	w.camera.Update()
	w.seat = seat
}

func (w *roomWorld) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *roomWorld) Seated() (*scene.Node, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seat, w.seat != nil
}

func (w *roomWorld) Dispose() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.host != nil {
		for _, id := range w.registered {
			w.host.Interaction().Unregister(id)
		}
	}
	w.registered = nil
	w.host, w.scene, w.camera = nil, nil, nil
	w.current, w.seat = "", nil
	return nil
}
