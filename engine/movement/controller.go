// Package movement turns polled control state into camera displacement for desktop free-fly,
// touch joystick, and VR teleport, smooth locomotion and snap-turn.
package movement

import (
	"log"
	"math"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	gravity      float32 = -9.8
	arcStep      float32 = 0.04
	arcMaxTime   float32 = 2.5
	snapDeadzone float32 = 0.7
)

// Frame is the per-tick input to a movement Controller.
type Frame struct {
	Control input.ControlState
	// Aim is the teleport aiming ray, usually the active controller's pointer.
	Aim    common.Ray
	HasAim bool
	Delta  time.Duration
}

// Controller moves a first-person camera.
type Controller interface {
	// Mode returns the mode combination fixed at construction.
	Mode() Mode

	// Attach adds the teleport marker to the scene. It is a no-op for modes without teleport.
	//
	// Parameters:
	//   - s: the scene to add the marker to
	//
	// Returns:
	//   - error: if the marker could not be added
	Attach(s scene.Scene) error

	// Detach removes the teleport marker from the scene it was attached to.
	Detach() error

	// Update applies one tick of movement to the camera. It never panics.
	//
	// Parameters:
	//   - cam: the camera to move; its controller must be first-person
	//   - f: the frame input
	Update(cam camera.Camera, f Frame)

	// TeleportTarget returns the landing point of the current arc.
	TeleportTarget() (mgl32.Vec3, bool)

	// Arc returns the sampled points of the current teleport arc.
	Arc() []mgl32.Vec3

	// Teleports returns the number of teleports performed.
	Teleports() int
}

type controllerImpl struct {
	mu     *sync.Mutex
	logger *log.Logger

	mode Mode

	moveSpeed     float32
	verticalSpeed float32
	eyeHeight     float32

	arcSpeed float32
	floorY   float32

	teleportCooldown time.Duration
	snapAngle        float32
	snapCooldown     time.Duration

	elapsed      time.Duration
	lastTeleport time.Duration
	teleported   bool
	lastSnap     time.Duration
	snapped      bool
	snapArmed    bool

	arc       []mgl32.Vec3
	target    mgl32.Vec3
	hasTarget bool
	teleports int

	marker      *scene.Node
	markerScene scene.Scene
}

var _ Controller = &controllerImpl{}

// NewController creates a movement controller for one session.
//
// Parameters:
//   - mode: the locomotion combination, fixed for the controller's lifetime
//   - options: optional tuning
//
// Returns:
//   - Controller: the controller
func NewController(mode Mode, options ...ControllerBuilderOption) Controller {
	c := &controllerImpl{
		mu:               &sync.Mutex{},
		mode:             mode,
		moveSpeed:        3,
		verticalSpeed:    2,
		eyeHeight:        common.EyeHeight,
		arcSpeed:         7,
		teleportCooldown: 500 * time.Millisecond,
		snapAngle:        float32(math.Pi / 4),
		snapCooldown:     300 * time.Millisecond,
		snapArmed:        true,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(os.Stdout, "[movement] ", log.LstdFlags|log.Lmicroseconds)
	}
	return c
}

func (c *controllerImpl) Mode() Mode {
	return c.mode
}

func (c *controllerImpl) Attach(s scene.Scene) error {
	if !c.mode.Has(Teleport) || s == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.marker != nil && c.marker.Attached() {
		return nil
	}
	mat := scene.NewMaterial("teleport-marker", common.RGB(0.2, 0.8, 1))
	mat.Emissive = common.RGB(0.1, 0.4, 0.5)
	mat.Unlit = true
	c.marker = scene.NewMesh("teleport-marker", scene.Cylinder("teleport-marker", 0.35, 0.02, 24), mat,
		scene.WithVisible(false), scene.WithPickable(false))
	if err := s.Add(c.marker, nil); err != nil {
		c.marker = nil
		return err
	}
	c.markerScene = s
	return nil
}

func (c *controllerImpl) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.marker == nil || c.markerScene == nil {
		return nil
	}
	var err error
	if c.marker.Attached() {
		err = c.markerScene.Remove(c.marker)
	}
	c.marker = nil
	c.markerScene = nil
	return err
}

func (c *controllerImpl) TeleportTarget() (mgl32.Vec3, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target, c.hasTarget
}

func (c *controllerImpl) Arc() []mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mgl32.Vec3(nil), c.arc...)
}

func (c *controllerImpl) Teleports() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teleports
}

func (c *controllerImpl) Update(cam camera.Camera, f Frame) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("recovered in update: %v", r)
		}
	}()
	if cam == nil {
		return
	}
	fp, ok := cam.Controller().(camera.FirstPersonController)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.elapsed += f.Delta
	dt := float32(f.Delta.Seconds())
	ctl := f.Control

	switch {
	case c.mode.Has(FreeFly):
		fp.Rotate(ctl.Look.X(), ctl.Look.Y())
		forward, right := fp.Forward(), fp.Right()
		step := right.Mul(ctl.Move.X()).Add(forward.Mul(ctl.Move.Y())).Mul(c.moveSpeed * dt)
		step = step.Add(common.WorldUp.Mul(ctl.Vertical * c.verticalSpeed * dt))
		fp.Translate(step)
	case c.mode.Has(Joystick):
		fp.Rotate(ctl.Look.X(), ctl.Look.Y())
		c.walk(fp, ctl.Move, dt)
	}

	if c.mode.Has(Smooth) {
		c.walk(fp, ctl.Move, dt)
	}
	if c.mode.Has(SnapTurn) {
		c.snapTurn(fp, ctl.Turn)
	}
	if c.mode.Has(Teleport) {
		aim := f.Aim
		if !f.HasAim {
			aim = common.Ray{Origin: fp.Position(), Direction: fp.Forward()}
		}
		c.updateArc(aim)
		if ctl.Teleport {
			c.teleport(fp)
		}
	}
	cam.Update()
}

func (c *controllerImpl) walk(fp camera.FirstPersonController, move mgl32.Vec2, dt float32) {
	x, y := common.ClampDisc(move.X(), move.Y())
	step := fp.Right().Mul(x).Add(fp.FlatForward().Mul(y)).Mul(c.moveSpeed * dt)
	fp.Translate(step)
}

// snapTurn rotates once per stick flick. The stick has to return past the deadzone
// and the cooldown has to expire before the next step.
func (c *controllerImpl) snapTurn(fp camera.FirstPersonController, axis float32) {
	if mgl32.Abs(axis) < snapDeadzone {
		c.snapArmed = true
		return
	}
	if !c.snapArmed {
		return
	}
	if c.snapped && c.elapsed-c.lastSnap < c.snapCooldown {
		return
	}
	turn := -c.snapAngle
	if axis < 0 {
		turn = c.snapAngle
	}
	fp.Rotate(turn, 0)
	c.snapped = true
	c.snapArmed = false
	c.lastSnap = c.elapsed
}

// updateArc samples a ballistic path from the aim ray until it drops below the floor.
func (c *controllerImpl) updateArc(aim common.Ray) {
	c.arc = c.arc[:0]
	c.hasTarget = false

	dir := aim.Direction
	if dir.LenSqr() < 1e-12 {
		c.showMarker(false)
		return
	}
	v := dir.Normalize().Mul(c.arcSpeed)
	prev := aim.Origin
	c.arc = append(c.arc, prev)
	for t := arcStep; t <= arcMaxTime; t += arcStep {
		p := aim.Origin.Add(v.Mul(t)).Add(mgl32.Vec3{0, 0.5 * gravity * t * t, 0})
		if p.Y() <= c.floorY {
			// interpolate the crossing between prev and p
			k := (prev.Y() - c.floorY) / (prev.Y() - p.Y())
			hit := common.LerpVec3(prev, p, k)
			hit[1] = c.floorY
			c.arc = append(c.arc, hit)
			c.target = hit
			c.hasTarget = true
			break
		}
		c.arc = append(c.arc, p)
		prev = p
	}
	if c.hasTarget && c.marker != nil {
		c.marker.SetPosition(c.target.Add(mgl32.Vec3{0, 0.01, 0}))
	}
	c.showMarker(c.hasTarget)
}

func (c *controllerImpl) showMarker(v bool) {
	if c.marker != nil {
		c.marker.SetVisible(v)
	}
}

func (c *controllerImpl) teleport(fp camera.FirstPersonController) {
	if !c.hasTarget {
		return
	}
	if c.teleported && c.elapsed-c.lastTeleport < c.teleportCooldown {
		return
	}
	fp.SetPosition(c.target.Add(mgl32.Vec3{0, c.eyeHeight, 0}))
	c.teleported = true
	c.lastTeleport = c.elapsed
	c.teleports++
}
