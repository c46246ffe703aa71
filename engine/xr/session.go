// Package xr manages immersive sessions: capability probing, the session state machine,
// tracked controller nodes and AR anchors and portals.
package xr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/interaction"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var (
	// ErrSessionActive is returned when starting a session while one is running.
	ErrSessionActive = errors.New("xr session already active")
	// ErrNoSession is returned by operations that need a running session.
	ErrNoSession = errors.New("no active xr session")
	// ErrNotAR is returned when placing anchors outside an immersive-ar session.
	ErrNotAR = errors.New("anchors need an immersive-ar session")
	// ErrNoHit is returned when the hit-test finds no surface.
	ErrNoHit = errors.New("hit-test found no surface")
	// ErrUnknownAnchor is returned when removing an anchor id that does not exist.
	ErrUnknownAnchor = errors.New("unknown anchor")
)

// Anchor is an AR marker tied to a hit-test position. A portal is an anchor with a room.
type Anchor struct {
	ID       string
	Position mgl32.Vec3
	Room     string
	Node     *scene.Node
}

// IsPortal reports whether interacting with the anchor requests a room switch.
func (a Anchor) IsPortal() bool {
	return a.Room != ""
}

// Session is the XR subsystem. With an unsupported runtime it stays idle and the engine
// runs in desktop mode.
type Session interface {
	// Probe reports whether a mode is supported. The runtime is asked once per mode.
	Probe(mode SessionMode) bool

	// Start requests an immersive session.
	//
	// Parameters:
	//   - ctx: bounds the runtime request
	//   - mode: the session mode
	//
	// Returns:
	//   - error: ErrSessionActive, ErrUnsupported or a runtime failure; the session stays idle
	Start(ctx context.Context, mode SessionMode) error

	// End stops the session, disposing every anchor and controller node. Ending an idle
	// session is a no-op.
	End() error

	State() SessionState
	Mode() SessionMode
	// ID is the uuid of the running session, empty when idle.
	ID() string

	// Update places the controller nodes around the camera for this frame. It never panics.
	Update(s scene.Scene, cam camera.Camera)

	// Controller returns the node tracking a hand.
	Controller(h Hand) (*scene.Node, bool)

	// ActivePointer returns the primary controller's ray, or an empty pointer when idle.
	ActivePointer() interaction.Pointer

	// PlaceAnchor hit-tests a ray and spawns a marker at the hit.
	PlaceAnchor(s scene.Scene, ray common.Ray) (Anchor, error)

	// PlacePortal spawns an anchor that requests a room switch when interacted with.
	PlacePortal(s scene.Scene, ray common.Ray, room string) (Anchor, error)

	// RemoveAnchor disposes one anchor.
	RemoveAnchor(id string) error

	// Anchors returns the live anchors.
	Anchors() []Anchor
}

type sessionImpl struct {
	mu     *sync.Mutex
	logger *log.Logger

	runtime  Runtime
	layer    interaction.Layer
	onPortal func(room string)

	probes map[SessionMode]bool
	state  SessionState
	mode   SessionMode
	id     string

	scene       scene.Scene
	controllers map[Hand]*scene.Node
	primary     Hand
	anchors     map[string]*Anchor
	order       []string
}

var _ Session = &sessionImpl{}

// NewSession creates an idle session bound to a runtime.
//
// Parameters:
//   - runtime: the platform binding; nil means NullRuntime
//   - options: optional collaborators
//
// Returns:
//   - Session: the session
func NewSession(runtime Runtime, options ...SessionBuilderOption) Session {
	if runtime == nil {
		runtime = NullRuntime{}
	}
	s := &sessionImpl{
		mu:          &sync.Mutex{},
		runtime:     runtime,
		probes:      make(map[SessionMode]bool),
		controllers: make(map[Hand]*scene.Node),
		anchors:     make(map[string]*Anchor),
		primary:     HandRight,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(os.Stdout, "[xr] ", log.LstdFlags|log.Lmicroseconds)
	}
	return s
}

func (s *sessionImpl) Probe(mode SessionMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probeLocked(mode)
}

func (s *sessionImpl) probeLocked(mode SessionMode) bool {
	if ok, cached := s.probes[mode]; cached {
		return ok
	}
	ok, err := s.runtime.Supports(mode)
	if err != nil {
		s.logger.Printf("probe %s: %v", mode, err)
		ok = false
	}
	s.probes[mode] = ok
	return ok
}

func (s *sessionImpl) Start(ctx context.Context, mode SessionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrSessionActive
	}
	if !s.probeLocked(mode) {
		return fmt.Errorf("start %s: %w", mode, ErrUnsupported)
	}
	s.state = StateRequesting
	if err := s.runtime.Begin(ctx, mode); err != nil {
		s.state = StateIdle
		return fmt.Errorf("start %s: %w", mode, err)
	}
	s.state = StateActive
	s.mode = mode
	s.id = uuid.NewString()
	s.logger.Printf("session %s started (%s)", s.id, mode)
	return nil
}

func (s *sessionImpl) End() error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return nil
	}
	s.state = StateEnding
	anchors := s.order
	s.mu.Unlock()

	var errs []error
	for _, id := range anchors {
		if err := s.RemoveAnchor(id); err != nil && !errors.Is(err, ErrUnknownAnchor) {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for hand, n := range s.controllers {
		if n.Attached() && s.scene != nil {
			if err := s.scene.Remove(n); err != nil {
				errs = append(errs, err)
			}
		}
		delete(s.controllers, hand)
	}
	if err := s.runtime.End(); err != nil {
		errs = append(errs, err)
	}
	s.logger.Printf("session %s ended", s.id)
	s.state = StateIdle
	s.mode = ModeInline
	s.id = ""
	s.scene = nil
	return errors.Join(errs...)
}

func (s *sessionImpl) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *sessionImpl) Mode() SessionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *sessionImpl) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *sessionImpl) Update(sc scene.Scene, cam camera.Camera) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("recovered in update: %v", r)
		}
	}()
	if sc == nil || cam == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.bindScene(sc)

	forward := cam.Forward()
	yaw := float32(math.Atan2(float64(forward.X()), float64(forward.Z())))
	pitch := float32(math.Asin(float64(mgl32.Clamp(forward.Y(), -1, 1))))
	turn := mgl32.QuatRotate(yaw, common.WorldUp)
	head := cam.Position()

	for _, c := range s.runtime.Controllers(pitch) {
		n, ok := s.controllers[c.Hand]
		if !ok {
			var err error
			if n, err = s.spawnController(c.Hand); err != nil {
				s.logger.Printf("controller %s: %v", c.Hand, err)
				continue
			}
		}
		n.SetVisible(c.Tracked)
		n.SetPosition(head.Add(turn.Rotate(c.Pose.Position)))
		n.SetRotation(mgl32.Vec3{c.Pose.Rotation.X(), yaw + c.Pose.Rotation.Y(), c.Pose.Rotation.Z()})
		if c.Primary && c.Tracked {
			s.primary = c.Hand
		}
	}
}

// bindScene moves session-owned nodes to a new scene after a module switch.
// Nodes in the old scene were disposed with it, so they are simply forgotten.
func (s *sessionImpl) bindScene(sc scene.Scene) {
	if s.scene == sc {
		return
	}
	s.scene = sc
	s.controllers = make(map[Hand]*scene.Node)
	for id, a := range s.anchors {
		if s.layer != nil && a.Node != nil {
			s.layer.Unregister(a.Node.ID())
		}
		delete(s.anchors, id)
	}
	s.order = nil
}

func (s *sessionImpl) spawnController(h Hand) (*scene.Node, error) {
	mat := scene.NewMaterial("controller", common.RGB(0.15, 0.15, 0.18))
	n := scene.NewMesh("controller-"+h.String(), scene.Box("controller", 0.05, 0.05, 0.16), mat,
		scene.WithPickable(false))
	if err := s.scene.Add(n, nil); err != nil {
		return nil, err
	}
	s.controllers[h] = n
	return n, nil
}

func (s *sessionImpl) Controller(h Hand) (*scene.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.controllers[h]
	return n, ok
}

func (s *sessionImpl) ActivePointer() interaction.Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return interaction.Pointer{}
	}
	n, ok := s.controllers[s.primary]
	if !ok || !n.Visible() {
		return interaction.Pointer{}
	}
	return interaction.ControllerPointer(n)
}

func (s *sessionImpl) PlaceAnchor(sc scene.Scene, ray common.Ray) (Anchor, error) {
	return s.place(sc, ray, "")
}

func (s *sessionImpl) PlacePortal(sc scene.Scene, ray common.Ray, room string) (Anchor, error) {
	if room == "" {
		return Anchor{}, errors.New("portal needs a room name")
	}
	return s.place(sc, ray, room)
}

func (s *sessionImpl) place(sc scene.Scene, ray common.Ray, room string) (Anchor, error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return Anchor{}, ErrNoSession
	}
	if s.mode != ModeImmersiveAR {
		s.mu.Unlock()
		return Anchor{}, ErrNotAR
	}
	s.bindScene(sc)
	hit, ok := s.runtime.HitTest(ray)
	if !ok {
		s.mu.Unlock()
		return Anchor{}, ErrNoHit
	}

	a := &Anchor{ID: uuid.NewString(), Position: hit, Room: room}
	if room == "" {
		mat := scene.NewMaterial("anchor", common.RGB(1, 0.8, 0.2))
		mat.Unlit = true
		a.Node = scene.NewMesh("anchor-"+a.ID, scene.Cylinder("anchor", 0.1, 0.02, 16), mat,
			scene.WithPosition(hit), scene.WithPickable(false))
	} else {
		mat := scene.NewMaterial("portal", common.RGB(0.4, 0.2, 0.9))
		mat.Emissive = common.RGB(0.3, 0.1, 0.6)
		yaw := float32(math.Atan2(float64(ray.Origin.X()-hit.X()), float64(ray.Origin.Z()-hit.Z())))
		a.Node = scene.NewMesh("portal-"+room, scene.Box("portal", 1.2, 2.1, 0.05), mat,
			scene.WithPosition(hit.Add(mgl32.Vec3{0, 1.05, 0})),
			scene.WithRotation(mgl32.Vec3{0, yaw, 0}),
			scene.WithLabel(room), scene.WithTag("portal", room))
	}
	if err := sc.Add(a.Node, nil); err != nil {
		s.mu.Unlock()
		return Anchor{}, fmt.Errorf("place anchor: %w", err)
	}
	s.anchors[a.ID] = a
	s.order = append(s.order, a.ID)
	layer, onPortal := s.layer, s.onPortal
	s.mu.Unlock()

	if a.IsPortal() && layer != nil {
		target := a.Room
		_ = layer.Register(interaction.Interactable{
			MeshID: a.Node.ID(),
			Callbacks: interaction.Callbacks{OnInteract: func(*scene.Node) {
				if onPortal != nil {
					onPortal(target)
				}
			}},
		})
	}
	return *a, nil
}

func (s *sessionImpl) RemoveAnchor(id string) error {
	s.mu.Lock()
	a, ok := s.anchors[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownAnchor, id)
	}
	delete(s.anchors, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	sc, layer := s.scene, s.layer
	s.mu.Unlock()

	if layer != nil {
		layer.Unregister(a.Node.ID())
	}
	if sc != nil && a.Node.Attached() {
		if err := sc.Remove(a.Node); err != nil {
			return fmt.Errorf("remove anchor %s: %w", id, err)
		}
	}
	return nil
}

func (s *sessionImpl) Anchors() []Anchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Anchor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.anchors[id])
	}
	return out
}
