package interaction

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func newBoxScene(t *testing.T) (scene.Scene, *scene.Node, *scene.Node) {
	t.Helper()
	s := scene.NewScene("pick")
	table := scene.NewNode("table", scene.WithPosition(mgl32.Vec3{0, 0, 4}))
	box := scene.NewMesh("box", scene.Box("box", 1, 1, 1), scene.NewMaterial("m", common.RGB(1, 1, 1)),
		scene.WithPosition(mgl32.Vec3{0, 0, 1}))
	if err := s.Add(table, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(box, table); err != nil {
		t.Fatal(err)
	}
	return s, table, box
}

func TestDesktopClickInteracts(t *testing.T) {
	s, _, box := newBoxScene(t)
	cam := camera.NewCamera()
	cam.Update()

	clicks := 0
	l := NewLayer()
	if err := l.Register(Interactable{MeshID: box.ID(), Callbacks: Callbacks{
		OnInteract: func(*scene.Node) { clicks++ },
	}}); err != nil {
		t.Fatal(err)
	}

	ctl := input.ControlState{Pointer: mgl32.Vec2{50, 50}, HasPointer: true, PrimaryPressed: true}
	l.Update(s, DesktopPointer(cam, ctl, 100, 100), ctl)
	if clicks != 1 {
		t.Fatalf("clicks = %d, want 1", clicks)
	}
	if id, ok := l.Hovered(); !ok || id != box.ID() {
		t.Fatalf("hovered = %d %v", id, ok)
	}
}

func TestHoverClearedSameTick(t *testing.T) {
	s, _, box := newBoxScene(t)
	cam := camera.NewCamera()
	cam.Update()

	var events []bool
	l := NewLayer()
	_ = l.Register(Interactable{MeshID: box.ID(), Callbacks: Callbacks{
		OnHover: func(_ *scene.Node, h bool) { events = append(events, h) },
	}})

	on := input.ControlState{Pointer: mgl32.Vec2{50, 50}, HasPointer: true}
	l.Update(s, DesktopPointer(cam, on, 100, 100), on)
	if _, lit := box.Highlight(); !lit {
		t.Fatalf("hovered box not highlighted")
	}

	off := input.ControlState{Pointer: mgl32.Vec2{0, 0}, HasPointer: true}
	l.Update(s, DesktopPointer(cam, off, 100, 100), off)
	if _, lit := box.Highlight(); lit {
		t.Fatalf("highlight survived the tick the ray left the mesh")
	}
	if _, ok := l.Hovered(); ok {
		t.Fatalf("hover state not cleared")
	}
	if len(events) != 2 || !events[0] || events[1] {
		t.Fatalf("hover events = %v", events)
	}
}

func TestGrabReleaseRestoresParent(t *testing.T) {
	s, table, box := newBoxScene(t)
	hand := scene.NewNode("hand")
	if err := s.Add(hand, nil); err != nil {
		t.Fatal(err)
	}

	var grabs, releases int
	l := NewLayer()
	_ = l.Register(Interactable{MeshID: box.ID(), Grabbable: true, Callbacks: Callbacks{
		OnGrab:    func(*scene.Node) { grabs++ },
		OnRelease: func(*scene.Node) { releases++ },
	}})

	for i := 0; i < 3; i++ {
		p := ControllerPointer(hand)
		l.Update(s, p, input.ControlState{Primary: true, PrimaryPressed: true})
		if box.Parent() != hand {
			t.Fatalf("round %d: box not attached to controller", i)
		}
		hand.SetPosition(mgl32.Vec3{0.5, 0, 0})
		l.Update(s, ControllerPointer(hand), input.ControlState{PrimaryReleased: true})
		if box.Parent() != table {
			t.Fatalf("round %d: parent after release = %v", i, box.Parent().Name())
		}
		hand.SetPosition(mgl32.Vec3{})
		box.SetPosition(mgl32.Vec3{0, 0, 1})
	}
	if grabs != 3 || releases != 3 {
		t.Fatalf("grabs=%d releases=%d", grabs, releases)
	}
}

func TestControllerTriggerOnNonGrabbableInteracts(t *testing.T) {
	s, table, box := newBoxScene(t)
	hand := scene.NewNode("hand")
	_ = s.Add(hand, nil)

	clicks := 0
	l := NewLayer()
	_ = l.Register(Interactable{MeshID: box.ID(), Callbacks: Callbacks{
		OnInteract: func(*scene.Node) { clicks++ },
	}})
	l.Update(s, ControllerPointer(hand), input.ControlState{PrimaryPressed: true})
	if clicks != 1 || box.Parent() != table {
		t.Fatalf("clicks=%d parent=%s", clicks, box.Parent().Name())
	}
}

func TestRegisterRejectsZeroID(t *testing.T) {
	if err := NewLayer().Register(Interactable{}); err != ErrInvalidMesh {
		t.Fatalf("err = %v", err)
	}
}

func TestCallbacksMayUseTheLayer(t *testing.T) {
	s, _, box := newBoxScene(t)
	cam := camera.NewCamera()
	cam.Update()
	hand := scene.NewNode("hand")
	_ = s.Add(hand, nil)

	l := NewLayer()
	_ = l.Register(Interactable{MeshID: box.ID(), Callbacks: Callbacks{
		OnHover:    func(n *scene.Node, _ bool) { l.Lookup(n.ID()) },
		OnInteract: func(n *scene.Node) { l.Unregister(n.ID()) },
	}})
	update := func(p Pointer, ctl input.ControlState) {
		t.Helper()
		done := make(chan struct{})
		go func() {
			l.Update(s, p, ctl)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("update blocked on a callback calling the layer")
		}
	}

	ctl := input.ControlState{Pointer: mgl32.Vec2{50, 50}, HasPointer: true, PrimaryPressed: true}
	update(DesktopPointer(cam, ctl, 100, 100), ctl)
	if _, ok := l.Lookup(box.ID()); ok {
		t.Fatal("unregister from OnInteract was lost")
	}

	_ = l.Register(Interactable{MeshID: box.ID(), Grabbable: true, Callbacks: Callbacks{
		OnGrab: func(*scene.Node) { l.Reset() },
	}})
	update(ControllerPointer(hand), input.ControlState{Primary: true, PrimaryPressed: true})
	if _, ok := l.Grabbed(); ok {
		t.Fatal("reset from OnGrab left the grab in place")
	}
	if _, ok := l.Lookup(box.ID()); ok {
		t.Fatal("reset from OnGrab left the registry")
	}
}
