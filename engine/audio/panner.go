package audio

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Acoustics is the distance model of a room.
type Acoustics struct {
	RefDistance float32 `json:"refDistance"`
	MaxDistance float32 `json:"maxDistance"`
	Rolloff     float32 `json:"rolloff"`
	Reverb      float32 `json:"reverb"`
}

// DefaultAcoustics is used until a room supplies its own.
var DefaultAcoustics = Acoustics{RefDistance: 1, MaxDistance: 30, Rolloff: 1, Reverb: 0.2}

// DistanceGain is the inverse distance model: ref / (ref + rolloff*(d-ref)), with d
// clamped to [ref, max].
func (a Acoustics) DistanceGain(d float32) float32 {
	ref := a.RefDistance
	if ref <= 0 {
		ref = 1
	}
	max := a.MaxDistance
	if max < ref {
		max = ref
	}
	d = mgl32.Clamp(d, ref, max)
	return ref / (ref + a.Rolloff*(d-ref))
}

// Panner places one mono source in space.
type Panner struct {
	mu       *sync.Mutex
	id       string
	source   Source
	position mgl32.Vec3
	volume   float32
	enabled  bool
}

func newPanner(id string, src Source) *Panner {
	return &Panner{mu: &sync.Mutex{}, id: id, source: src, volume: 1, enabled: true}
}

// ID returns the emitter id the panner was attached under.
func (p *Panner) ID() string { return p.id }

// SetPosition moves the panner. Panners never move on their own.
func (p *Panner) SetPosition(v mgl32.Vec3) {
	p.mu.Lock()
	p.position = v
	p.mu.Unlock()
}

// Position returns the panner position.
func (p *Panner) Position() mgl32.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// SetVolume scales the source before spatialization.
func (p *Panner) SetVolume(v float32) {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

// SetEnabled silences the panner without detaching it.
func (p *Panner) SetEnabled(v bool) {
	p.mu.Lock()
	p.enabled = v
	p.mu.Unlock()
}

// Enabled reports whether the panner is audible.
func (p *Panner) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Gains returns the left and right channel gains heard by the listener.
//
// Parameters:
//   - l: the listener pose
//   - a: the room distance model
//
// Returns:
//   - left, right: equal-power panned gains including distance attenuation
func (p *Panner) Gains(l ListenerPose, a Acoustics) (left, right float32) {
	p.mu.Lock()
	pos, vol, on := p.position, p.volume, p.enabled
	p.mu.Unlock()
	if !on {
		return 0, 0
	}
	return SpatialGains(l, pos, a, vol)
}

// SpatialGains computes equal-power stereo gains for a point source.
func SpatialGains(l ListenerPose, pos mgl32.Vec3, a Acoustics, volume float32) (left, right float32) {
	d := pos.Sub(l.Position)
	dist := d.Len()
	g := a.DistanceGain(dist) * volume

	var az float32
	if dist > 1e-5 {
		az = mgl32.Clamp(d.Mul(1/dist).Dot(l.Right()), -1, 1)
	}
	theta := float64((az + 1) / 2 * math.Pi / 2)
	return g * float32(math.Cos(theta)), g * float32(math.Sin(theta))
}
