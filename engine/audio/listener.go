package audio

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Viewer is anything with a world pose the listener can follow, such as a camera.
type Viewer interface {
	Position() mgl32.Vec3
	Forward() mgl32.Vec3
	ViewUp() mgl32.Vec3
}

// ListenerPose is a snapshot of the listener.
type ListenerPose struct {
	Position mgl32.Vec3
	Forward  mgl32.Vec3
	Up       mgl32.Vec3
}

// Right returns the listener's right ear direction.
func (p ListenerPose) Right() mgl32.Vec3 {
	r := p.Forward.Cross(p.Up)
	if r.LenSqr() < 1e-8 {
		r, _ = common.Basis(p.Forward)
	}
	return r.Normalize()
}

// Listener is the single point every panner is heard from.
type Listener struct {
	mu   *sync.Mutex
	pose ListenerPose
}

var (
	defaultListener     *Listener
	defaultListenerOnce sync.Once
)

// DefaultListener returns the process-wide listener shared by every graph and module.
func DefaultListener() *Listener {
	defaultListenerOnce.Do(func() {
		defaultListener = NewListener()
	})
	return defaultListener
}

// NewListener creates a listener at the origin facing +Z.
func NewListener() *Listener {
	return &Listener{
		mu:   &sync.Mutex{},
		pose: ListenerPose{Forward: mgl32.Vec3{0, 0, 1}, Up: common.WorldUp},
	}
}

// Set moves and orients the listener.
func (l *Listener) Set(position, forward, up mgl32.Vec3) {
	if forward.LenSqr() < 1e-8 {
		forward = mgl32.Vec3{0, 0, 1}
	}
	if up.LenSqr() < 1e-8 {
		up = common.WorldUp
	}
	l.mu.Lock()
	l.pose = ListenerPose{Position: position, Forward: forward.Normalize(), Up: up.Normalize()}
	l.mu.Unlock()
}

// Follow copies the pose of v. It is called once per tick after movement.
func (l *Listener) Follow(v Viewer) {
	l.Set(v.Position(), v.Forward(), v.ViewUp())
}

// Pose returns the current listener pose.
func (l *Listener) Pose() ListenerPose {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pose
}
