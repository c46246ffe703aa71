package audio

import (
	"io"
	"log"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-4 }

func TestInverseDistanceGain(t *testing.T) {
	a := Acoustics{RefDistance: 1, MaxDistance: 10, Rolloff: 1}
	for _, c := range []struct{ d, want float32 }{
		{0, 1},
		{1, 1},
		{2, 0.5},
		{4, 0.25},
		{10, 0.1},
		{100, 0.1},
	} {
		if got := a.DistanceGain(c.d); !near(got, c.want) {
			t.Fatalf("gain at %v = %v, want %v", c.d, got, c.want)
		}
	}
}

func TestEqualPowerPanning(t *testing.T) {
	l := ListenerPose{Forward: mgl32.Vec3{0, 0, 1}, Up: mgl32.Vec3{0, 1, 0}}
	a := Acoustics{RefDistance: 1, MaxDistance: 50, Rolloff: 1}

	// facing +Z, +X is to the left
	left, right := SpatialGains(l, mgl32.Vec3{3, 0, 0}, a, 1)
	if !(left > 0.3 && right < 1e-4) {
		t.Fatalf("source on the left: l=%v r=%v", left, right)
	}
	left, right = SpatialGains(l, mgl32.Vec3{-3, 0, 0}, a, 1)
	if !(right > 0.3 && left < 1e-4) {
		t.Fatalf("source on the right: l=%v r=%v", left, right)
	}
	left, right = SpatialGains(l, mgl32.Vec3{0, 0, 3}, a, 1)
	if !near(left, right) {
		t.Fatalf("source ahead should be centered: l=%v r=%v", left, right)
	}

	for _, pos := range []mgl32.Vec3{{2, 0, 1}, {-1, 0, 4}, {0.5, 1, -2}} {
		left, right := SpatialGains(l, pos, a, 1)
		g := a.DistanceGain(pos.Len())
		if !near(left*left+right*right, g*g) {
			t.Fatalf("power not preserved at %v: %v vs %v", pos, left*left+right*right, g*g)
		}
	}
}

func TestListenerFollowsCamera(t *testing.T) {
	fp := camera.NewFirstPersonController(camera.WithEyePosition(mgl32.Vec3{1, 1.6, -10}), camera.WithYawPitch(0.7, 0.1))
	cam := camera.NewCamera(camera.WithController(fp))
	cam.Update()
	l := NewListener()
	l.Follow(cam)
	p := l.Pose()
	if p.Position != cam.Position() {
		t.Fatalf("listener at %v, camera at %v", p.Position, cam.Position())
	}
	if p.Forward.Sub(cam.Forward()).Len() > 1e-4 {
		t.Fatalf("listener forward %v, camera %v", p.Forward, cam.Forward())
	}
}

func TestDefaultListenerIsShared(t *testing.T) {
	g1 := NewGraph(WithLogger(quiet()))
	g2 := NewGraph(WithLogger(quiet()))
	if g1.Listener() != g2.Listener() || g1.Listener() != DefaultListener() {
		t.Fatal("graphs should share the process-wide listener")
	}
}

func TestPannerMovesOnlyWhenSet(t *testing.T) {
	l := NewListener()
	g := NewGraph(WithLogger(quiet()), WithListener(l))
	p, err := g.Attach("peer", NewToneSource(440, 0.5, DefaultSampleRate))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	p.SetPosition(mgl32.Vec3{2, 0, 0})
	l.Set(mgl32.Vec3{5, 0, 5}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0})
	if p.Position() != (mgl32.Vec3{2, 0, 0}) {
		t.Fatalf("panner moved with the listener: %v", p.Position())
	}
	if _, err := g.Attach("peer", nil); err != ErrDuplicateEmitter {
		t.Fatalf("duplicate attach err = %v", err)
	}
}

func TestMixSpatializesAndDetaches(t *testing.T) {
	l := NewListener()
	g := NewGraph(WithLogger(quiet()), WithListener(l), WithAcoustics(Acoustics{RefDistance: 1, MaxDistance: 20, Rolloff: 1}))
	p, _ := g.Attach("left", NewBufferSource([]float32{0.5}, true))
	p.SetPosition(mgl32.Vec3{1, 0, 0})

	block := make([]float32, 8)
	g.Mix(block)
	if !near(block[0], 0.5) || !near(block[1], 0) {
		t.Fatalf("first frame = %v %v, want hard left", block[0], block[1])
	}

	p.SetEnabled(false)
	g.Mix(block)
	for _, v := range block {
		if v != 0 {
			t.Fatalf("disabled panner audible: %v", block)
		}
	}

	p.SetEnabled(true)
	g.Detach("left")
	g.Mix(block)
	for _, v := range block {
		if v != 0 {
			t.Fatalf("detached panner audible: %v", block)
		}
	}
	if len(g.Emitters()) != 0 {
		t.Fatalf("emitters = %v", g.Emitters())
	}
}

func TestReverbAddsTail(t *testing.T) {
	l := NewListener()
	g := NewGraph(WithLogger(quiet()), WithListener(l), WithSampleRate(1000), WithAcoustics(Acoustics{RefDistance: 1, MaxDistance: 10, Rolloff: 1, Reverb: 1}))
	g.Attach("click", NewBufferSource([]float32{1}, false))

	block := make([]float32, 2*200)
	g.Mix(block)
	var tail float32
	for i := 2 * 10; i < len(block); i += 2 {
		tail += float32(math.Abs(float64(block[i])))
	}
	if tail == 0 {
		t.Fatal("reverb produced no tail after a click")
	}
}

func TestNullSinkRendersPCM(t *testing.T) {
	l := NewListener()
	g := NewGraph(WithLogger(quiet()), WithListener(l))
	p, _ := g.Attach("ahead", NewBufferSource([]float32{1}, true))
	p.SetPosition(mgl32.Vec3{0, 0, 1})

	s := NewNullSink(g)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pcm, err := s.Pump()
	if err != nil || len(pcm) == 0 {
		t.Fatalf("pump = %d bytes, %v", len(pcm), err)
	}
	v := int16(uint16(pcm[0]) | uint16(pcm[1])<<8)
	if v < 20000 {
		t.Fatalf("left sample = %d, want about 0.707 of full scale", v)
	}
	s.Close()
	if _, err := s.Pump(); err != ErrSinkClosed {
		t.Fatalf("pump after close err = %v", err)
	}
}

func TestRMS(t *testing.T) {
	if got := RMS([]float32{1, -1, 1, -1}); !near(got, 1) {
		t.Fatalf("rms = %v", got)
	}
	if RMS(nil) != 0 {
		t.Fatal("rms of nothing should be 0")
	}
}
