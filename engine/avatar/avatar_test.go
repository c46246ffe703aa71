package avatar

import (
	"errors"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const frame = 16 * time.Millisecond

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func newBound() (Manager, scene.Scene, scene.MemoryAllocator) {
	alloc := scene.NewMemoryAllocator()
	s := scene.NewScene("avatars", scene.WithAllocator(alloc))
	m := NewManager(WithLogger(quiet()))
	m.Bind(s)
	return m, s, alloc
}

func TestNetworkAvatarConvergesWithoutSnapping(t *testing.T) {
	m, _, _ := newBound()
	m.UpdateNetworkAvatar("p1", mgl32.Vec3{}, mgl32.Vec3{})
	target := mgl32.Vec3{10, 0, 0}
	m.UpdateNetworkAvatar("p1", target, mgl32.Vec3{0, 1, 0})

	a, _ := m.Network("p1")
	if a.Root.Rotation() != (mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("rotation = %v, want it applied directly", a.Root.Rotation())
	}

	m.Update(frame)
	if got := a.Position().X(); math.Abs(float64(got-1.5)) > 1e-4 {
		t.Fatalf("after one frame x = %v, want 1.5", got)
	}

	prev := a.Position().Sub(target).Len()
	for i := 0; i < 60; i++ {
		m.Update(frame)
		d := a.Position().Sub(target).Len()
		if d > prev {
			t.Fatalf("frame %d: distance grew from %v to %v", i, prev, d)
		}
		prev = d
	}
	if prev > 0.01 {
		t.Fatalf("distance after 61 frames = %v", prev)
	}
	if a.Root.Position() != a.Position() {
		t.Fatalf("node position %v does not follow the avatar %v", a.Root.Position(), a.Position())
	}
}

func TestNetworkAvatarCreatedOnFirstSample(t *testing.T) {
	m, s, _ := newBound()
	if _, ok := m.Network("p1"); ok {
		t.Fatal("avatar exists before any sample")
	}
	before := s.Count()

	at := mgl32.Vec3{3, 1.6, -2}
	m.UpdateNetworkAvatar("p1", at, mgl32.Vec3{})
	a, ok := m.Network("p1")
	if !ok {
		t.Fatal("avatar not created by the first sample")
	}
	if a.Position() != at || a.Root.Position() != at {
		t.Fatalf("first sample should place the avatar, got %v", a.Position())
	}
	if !a.Root.Attached() || s.Count() <= before {
		t.Fatal("avatar not added to the scene")
	}
	if a.Name != "p1" {
		t.Fatalf("name = %q, want the id", a.Name)
	}

	again, err := m.CreateNetworkAvatar("p1", "Ada")
	if err != nil || again != a || again.Label.Label() != "Ada" {
		t.Fatalf("create on existing id = %v, %v", again, err)
	}
}

func TestRemoveNetworkAvatarLeavesOthers(t *testing.T) {
	m, s, alloc := newBound()
	baseLive, baseCount := alloc.Live(), s.Count()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := m.CreateNetworkAvatar(id, id); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	b, _ := m.Network("b")
	m.RemoveNetworkAvatar("b")
	m.RemoveNetworkAvatar("missing")

	if b.Root.Attached() {
		t.Fatal("removed avatar still attached")
	}
	if got := m.NetworkIDs(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("ids = %v", got)
	}
	for _, id := range []string{"a", "c"} {
		a, _ := m.Network(id)
		if !a.Root.Attached() {
			t.Fatalf("avatar %s detached by removing b", id)
		}
	}

	if err := m.Dispose(); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if alloc.Live() != baseLive || s.Count() != baseCount {
		t.Fatalf("after dispose live=%d count=%d, want %d %d", alloc.Live(), s.Count(), baseLive, baseCount)
	}
}

func TestNoSceneIsLoggedNoop(t *testing.T) {
	m := NewManager(WithLogger(quiet()))
	if _, err := m.CreateLocalAvatar(); !errors.Is(err, ErrNoScene) {
		t.Fatalf("create local err = %v", err)
	}
	if _, err := m.CreateNetworkAvatar("p", "P"); !errors.Is(err, ErrNoScene) {
		t.Fatalf("create network err = %v", err)
	}
	m.UpdateNetworkAvatar("p", mgl32.Vec3{1, 0, 0}, mgl32.Vec3{})
	m.UpdateLocalAvatar(mgl32.QuatIdent(), mgl32.Vec3{})
	m.Update(frame)
	if len(m.NetworkIDs()) != 0 {
		t.Fatal("avatar created without a scene")
	}
}

func TestLocalAvatarCreatedOnce(t *testing.T) {
	m, _, _ := newBound()
	a, err := m.CreateLocalAvatar()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := m.CreateLocalAvatar()
	if err != nil || a != b {
		t.Fatalf("second create returned %p, %v; want %p", b, err, a)
	}
}

func TestLocalAvatarArmsReachForward(t *testing.T) {
	m, _, _ := newBound()
	a, _ := m.CreateLocalAvatar()
	head := mgl32.Vec3{0, 1.6, 0}
	m.Update(frame)
	m.UpdateLocalAvatar(mgl32.QuatIdent(), head)

	h := NewHeadFrame(mgl32.QuatIdent(), head)
	ls, rs := h.Shoulders()
	if ls.X() <= rs.X() {
		t.Fatalf("facing +Z the left shoulder should be on +X: left=%v right=%v", ls, rs)
	}
	for _, c := range []struct {
		shoulder, hand mgl32.Vec3
		arm            *scene.Node
	}{
		{ls, a.LeftHand, a.LeftArm},
		{rs, a.RightHand, a.RightArm},
	} {
		if c.hand.Z() <= c.shoulder.Z() || c.hand.Y() >= c.shoulder.Y() {
			t.Fatalf("hand %v should be forward of and below shoulder %v", c.hand, c.shoulder)
		}
		seg := LookAt(c.shoulder, c.hand)
		dir := seg.Direction()
		want := c.hand.Sub(c.shoulder).Normalize()
		if dir.Sub(want).Len() > 1e-3 {
			t.Fatalf("bone direction %v, want %v", dir, want)
		}
		if c.arm.Position() != seg.Center || math.Abs(float64(c.arm.Scale().Z()-seg.Length)) > 1e-5 {
			t.Fatalf("arm node not placed on the segment")
		}
	}

	// turning the head 90 degrees left moves the hands toward +X
	turn := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	m.UpdateLocalAvatar(turn, head)
	if a.LeftHand.X() < 0.2 || a.RightHand.X() < 0.2 {
		t.Fatalf("hands did not follow the head yaw: %v %v", a.LeftHand, a.RightHand)
	}
}

func TestLegSwingScalesWithSpeed(t *testing.T) {
	peak := func(speed float32) float32 {
		var max float32
		for i := 0; i < 100; i++ {
			v := LegSwing(float32(i)*0.01, speed, 0)
			if v > max {
				max = v
			}
		}
		return max
	}
	idle, walk, run := peak(0), peak(1), peak(10)
	if !(idle < walk && walk < run) {
		t.Fatalf("amplitudes idle=%v walk=%v run=%v should increase", idle, walk, run)
	}
	if run > strideMax+1e-5 {
		t.Fatalf("run amplitude %v exceeds the cap", run)
	}
	if l, r := LegSwing(0.1, 1, 0), LegSwing(0.1, 1, math.Pi); math.Abs(float64(l+r)) > 1e-4 {
		t.Fatalf("legs not in antiphase: %v %v", l, r)
	}
}

func TestMouthAttackAndRelease(t *testing.T) {
	m, _, _ := newBound()
	m.UpdateNetworkAvatar("p", mgl32.Vec3{}, mgl32.Vec3{})
	a, _ := m.Network("p")

	m.SetVoiceLevel("p", 0.5)
	m.Update(frame)
	opened := a.MouthOpening()
	if opened < 0.45 {
		t.Fatalf("mouth opened to %v after one loud frame", opened)
	}

	m.SetVoiceLevel("p", 0)
	m.Update(frame)
	closing := a.MouthOpening()
	if closing >= opened || closing < opened*0.8 {
		t.Fatalf("release should be gradual: %v -> %v", opened, closing)
	}
	if a.Mouth.Scale().Y() <= 1 {
		t.Fatalf("mouth node not scaled: %v", a.Mouth.Scale())
	}
}

func TestBindMovesAvatarsToNewScene(t *testing.T) {
	m, first, alloc := newBound()
	baseCount := first.Count()
	m.CreateLocalAvatar()
	m.UpdateNetworkAvatar("p", mgl32.Vec3{1, 2, 3}, mgl32.Vec3{})

	secondAlloc := scene.NewMemoryAllocator()
	second := scene.NewScene("next", scene.WithAllocator(secondAlloc))
	m.Bind(second)

	if first.Count() != baseCount || alloc.Live() != 0 {
		t.Fatalf("old scene keeps count=%d live=%d", first.Count(), alloc.Live())
	}
	a, ok := m.Network("p")
	if !ok || !a.Root.Attached() || a.Position() != (mgl32.Vec3{1, 2, 3}) {
		t.Fatalf("network avatar not rebuilt in the new scene")
	}
	if l, ok := m.Local(); !ok || !l.Root.Attached() {
		t.Fatal("local avatar not rebuilt in the new scene")
	}
	if secondAlloc.Live() == 0 {
		t.Fatal("new scene holds no avatar resources")
	}
}

func TestCustomizationDocument(t *testing.T) {
	c := DefaultCustomization()
	c.DisplayName = "Ada"
	c.Accessories = []string{"glasses"}
	data, err := EncodeCustomization(c, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	doc, err := DecodeCustomization(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Version != CustomizationVersion || doc.Customization.DisplayName != "Ada" || doc.Timestamp != "2024-05-01T12:00:00Z" {
		t.Fatalf("decoded %+v", doc)
	}

	bad := []string{
		`{"version":1,"customization":{"bodyType":"average","height":1.7,"skinTone":"tan","displayName":"x"}}`,
		`{"version":1,"customization":{"bodyType":"average","height":1.7,"skinTone":"#aabbcc"}}`,
		`{"version":1,"customization":{"bodyType":"giant","height":1.7,"skinTone":"#aabbcc","displayName":"x"}}`,
		`{"customization":{}}`,
		`not json`,
	}
	for _, b := range bad {
		if _, err := DecodeCustomization([]byte(b)); !errors.Is(err, ErrInvalidCustomization) {
			t.Fatalf("%s: err = %v", b, err)
		}
	}
}

func TestApplyCustomizationRestylesLocalRig(t *testing.T) {
	m, _, _ := newBound()
	a, _ := m.CreateLocalAvatar()
	c := DefaultCustomization()
	c.SkinTone = "#ff0000"
	c.HairStyle = "none"
	c.BodyType = "broad"
	if err := m.ApplyCustomization(c); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.Head.Material().Color[0] != 1 || a.Head.Material().Color[1] != 0 {
		t.Fatalf("skin color = %v", a.Head.Material().Color)
	}
	if a.Hair.Visible() {
		t.Fatal("hair should be hidden for style none")
	}
	if a.Torso.Scale().X() <= 1 {
		t.Fatalf("broad torso scale = %v", a.Torso.Scale())
	}
	c.SkinTone = "pink"
	if err := m.ApplyCustomization(c); !errors.Is(err, ErrInvalidCustomization) {
		t.Fatalf("bad tone err = %v", err)
	}
}
