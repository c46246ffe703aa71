// Package room owns the rooms loaded into a module's scene: authored or procedural
// construction, enable/disable switching, full teardown and asynchronous builds.
package room

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrRoomNotLoaded is returned by operations on a room the manager does not hold.
	ErrRoomNotLoaded = errors.New("room not loaded")
	// ErrClosed is returned by RequestLoad after Close.
	ErrClosed = errors.New("room manager closed")
)

// Result is one applied asynchronous load.
type Result struct {
	Ticket uint64
	Name   string
	Room   *Room
	Err    error
}

// Manager owns every room in one scene. At most one room is enabled at a time.
type Manager interface {
	// LoadRoom disposes every loaded room, then builds the named room from the store or
	// procedurally, enables it and moves the camera to its first spawn point.
	//
	// Parameters:
	//   - ctx: bounds the store lookup
	//   - name: the room name
	//   - meta: optional seed metadata
	//
	// Returns:
	//   - *Room: the loaded room
	//   - error: a teardown or scene error; store failures fall back to procedural content
	LoadRoom(ctx context.Context, name string, meta *Metadata) (*Room, error)

	// PreloadRoom builds a room and keeps it disabled without touching loaded rooms.
	// A room with the same name is replaced.
	PreloadRoom(ctx context.Context, name string, meta *Metadata) (*Room, error)

	// SwitchToRoom enables a loaded room without reloading it, disabling every other one.
	// Rooms that are not loaded go through LoadRoom.
	SwitchToRoom(ctx context.Context, name string) (*Room, error)

	// HideRoom hides a loaded room without disposing it.
	HideRoom(name string) error

	// ShowRoom makes a loaded room the enabled one without moving the camera.
	ShowRoom(name string) error

	// UnloadRoom disposes one room.
	UnloadRoom(name string) error

	// RequestLoad builds a room on the worker pool. Poll applies the result as LoadRoom would.
	//
	// Returns:
	//   - uint64: the ticket reported in the Result
	//   - error: ErrClosed
	RequestLoad(name string, meta *Metadata) (uint64, error)

	// Poll applies every finished asynchronous build in completion order. Call it from the tick.
	Poll() []Result

	// Pending returns the number of builds not yet applied.
	Pending() int

	// Active returns the enabled room.
	Active() (*Room, bool)

	// Room returns a loaded room.
	Room(name string) (*Room, bool)

	// Rooms returns the loaded room names in load order.
	Rooms() []string

	// Dispose unloads every room.
	Dispose() error

	// Close rejects further asynchronous loads.
	Close()
}

type completion struct {
	ticket    uint64
	blueprint Blueprint
}

type managerImpl struct {
	mu     *sync.Mutex
	logger *log.Logger

	scene     scene.Scene
	camera    camera.Camera
	store     Store
	eyeHeight float32
	timeout   time.Duration
	onLoad    func(*Room)

	workers int
	pool    worker.DynamicWorkerPool

	rooms  map[string]*Room
	order  []string
	active string

	nextTicket uint64
	pending    int
	completed  []completion
	closed     bool
}

var _ Manager = &managerImpl{}

// NewManager creates a room manager for a scene and its camera.
//
// Parameters:
//   - s: the scene rooms are added to
//   - cam: the camera moved to spawn points; may be nil
//   - options: optional store, workers and logging
//
// Returns:
//   - Manager: the manager
func NewManager(s scene.Scene, cam camera.Camera, options ...ManagerBuilderOption) Manager {
	m := &managerImpl{
		mu:        &sync.Mutex{},
		scene:     s,
		camera:    cam,
		eyeHeight: common.EyeHeight,
		timeout:   5 * time.Second,
		workers:   2,
		rooms:     make(map[string]*Room),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.New(os.Stdout, "[room] ", log.LstdFlags|log.Lmicroseconds)
	}
	m.pool = worker.NewDynamicWorkerPool(m.workers, 64, time.Second)
	return m
}

// build resolves a room's content. It touches no manager state and runs on pool workers.
func (m *managerImpl) build(ctx context.Context, name string, seed *Metadata) Blueprint {
	if m.store != nil {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		layout, authored, err := m.store.Load(ctx, name)
		switch {
		case err == nil:
			meta := authored
			if seed != nil {
				merged := mergeMetadata(Metadata{}, authored)
				merged = mergeMetadata(merged, seed)
				meta = &merged
			}
			if layout.Name == "" {
				layout.Name = name
			}
			bp := FromLayout(layout, meta)
			bp.Name = name
			if len(bp.Skipped) > 0 {
				m.logger.Printf("room %s: skipped unknown prefabs %v", name, bp.Skipped)
			}
			return bp
		case errors.Is(err, ErrNotFound):
		default:
			m.logger.Printf("room %s: authored load failed, generating: %v", name, err)
		}
	}
	return Generate(name, seed)
}

func (m *managerImpl) LoadRoom(ctx context.Context, name string, meta *Metadata) (*Room, error) {
	bp := m.build(ctx, name, meta)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(bp)
}

func (m *managerImpl) PreloadRoom(ctx context.Context, name string, meta *Metadata) (*Room, error) {
	bp := m.build(ctx, name, meta)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[name]; ok {
		if err := m.unloadLocked(name); err != nil {
			return nil, err
		}
	}
	r, err := m.attach(bp)
	if err != nil {
		return nil, err
	}
	r.setEnabled(false)
	return r, nil
}

// apply tears down every loaded room before the new room's meshes enter the scene.
// Caller must hold the mutex.
func (m *managerImpl) apply(bp Blueprint) (*Room, error) {
	if err := m.teardownLocked(); err != nil {
		return nil, fmt.Errorf("load room %s: %w", bp.Name, err)
	}
	r, err := m.attach(bp)
	if err != nil {
		return nil, err
	}
	m.enableLocked(r)
	m.placeCamera(r)
	m.logger.Printf("loaded room %s (%s, %s, %d meshes)", r.Name, r.Archetype, r.Source, len(r.meshes))
	if m.onLoad != nil {
		m.onLoad(r)
	}
	return r, nil
}

func (m *managerImpl) attach(bp Blueprint) (*Room, error) {
	if err := m.scene.Add(bp.Root, nil); err != nil {
		return nil, fmt.Errorf("load room %s: %w", bp.Name, err)
	}
	r := &Room{
		Name:      bp.Name,
		Archetype: bp.Archetype,
		Source:    bp.Source,
		Root:      bp.Root,
		Metadata:  bp.Metadata,
		LoadedAt:  time.Now(),
		meshes:    bp.Meshes(),
		enabled:   true,
	}
	for _, spec := range bp.Metadata.Lighting.Lights {
		l := spec.Build()
		m.scene.AddLight(l)
		r.lights = append(r.lights, l)
	}
	m.rooms[r.Name] = r
	m.order = append(m.order, r.Name)
	return r, nil
}

func (m *managerImpl) enableLocked(r *Room) {
	for _, other := range m.rooms {
		if other != r && other.enabled {
			other.setEnabled(false)
		}
	}
	r.setEnabled(true)
	m.active = r.Name
	m.scene.SetAmbient(r.Metadata.Lighting.Ambient)
	m.scene.SetBackground(r.Metadata.Atmosphere.Background)
}

func (m *managerImpl) placeCamera(r *Room) {
	if m.camera == nil {
		return
	}
	eye := r.SpawnEye(m.eyeHeight)
	switch ctrl := m.camera.Controller().(type) {
	case camera.FirstPersonController:
		ctrl.SetPosition(eye)
		ctrl.ResetRotation()
	case camera.CameraController:
		ctrl.SetPosition(eye)
		ctrl.SetTarget(eye.Add(mgl32.Vec3{0, 0, 1}))
	}
	m.camera.Update()
}

func (m *managerImpl) teardownLocked() error {
	var errs []error
	for _, name := range append([]string(nil), m.order...) {
		if err := m.unloadLocked(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *managerImpl) unloadLocked(name string) error {
	r, ok := m.rooms[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotLoaded, name)
	}
	delete(m.rooms, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.active == name {
		m.active = ""
	}
	for _, l := range r.lights {
		m.scene.RemoveLight(l)
	}
	r.lights = nil
	r.enabled = false
	if r.Root.Attached() {
		if err := m.scene.Remove(r.Root); err != nil {
			return fmt.Errorf("unload room %s: %w", name, err)
		}
	}
	return nil
}

func (m *managerImpl) SwitchToRoom(ctx context.Context, name string) (*Room, error) {
	m.mu.Lock()
	if r, ok := m.rooms[name]; ok {
		defer m.mu.Unlock()
		m.enableLocked(r)
		m.placeCamera(r)
		return r, nil
	}
	m.mu.Unlock()
	return m.LoadRoom(ctx, name, nil)
}

func (m *managerImpl) HideRoom(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotLoaded, name)
	}
	r.setEnabled(false)
	if m.active == name {
		m.active = ""
	}
	return nil
}

func (m *managerImpl) ShowRoom(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotLoaded, name)
	}
	m.enableLocked(r)
	return nil
}

func (m *managerImpl) UnloadRoom(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unloadLocked(name)
}

func (m *managerImpl) RequestLoad(name string, meta *Metadata) (uint64, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrClosed
	}
	m.nextTicket++
	ticket := m.nextTicket
	m.pending++
	m.mu.Unlock()

	m.pool.SubmitTask(worker.Task{
		ID: int(ticket),
		Do: func() (any, error) {
			bp := m.build(context.Background(), name, meta)
			m.mu.Lock()
			m.completed = append(m.completed, completion{ticket: ticket, blueprint: bp})
			m.mu.Unlock()
			return nil, nil
		},
	})
	return ticket, nil
}

func (m *managerImpl) Poll() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.completed) == 0 {
		return nil
	}
	done := m.completed
	m.completed = nil

	results := make([]Result, 0, len(done))
	for _, c := range done {
		m.pending--
		r, err := m.apply(c.blueprint)
		if err != nil {
			m.logger.Printf("apply room %s: %v", c.blueprint.Name, err)
		}
		results = append(results, Result{Ticket: c.ticket, Name: c.blueprint.Name, Room: r, Err: err})
	}
	return results
}

func (m *managerImpl) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

func (m *managerImpl) Active() (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[m.active]
	return r, ok
}

func (m *managerImpl) Room(name string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	return r, ok
}

func (m *managerImpl) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func (m *managerImpl) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teardownLocked()
}

func (m *managerImpl) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
