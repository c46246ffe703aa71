package roomworld

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine"
	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

type idle struct{}

func (idle) Poll() input.ControlState { return input.ControlState{} }

func newEngine(t *testing.T, w RoomWorld) engine.Engine {
	t.Helper()
	e := engine.NewEngine(
		engine.WithLogger(quiet()),
		engine.WithSize(160, 120),
		engine.WithInput(idle{}),
		engine.WithAudio(audio.NewGraph(audio.WithListener(audio.NewListener()), audio.WithLogger(quiet()))),
	)
	t.Cleanup(func() { e.Close() })
	if err := e.Register(w); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := e.SwitchModule(Name); err != nil {
		t.Fatalf("switch: %v", err)
	}
	return e
}

// meshesOf returns the mesh ids under the first room object with the given prefab.
func meshesOf(r *room.Room, prefab string) (*scene.Node, []uint64) {
	for _, o := range r.Objects() {
		if p, _ := o.Tag(room.TagPrefab); p != prefab {
			continue
		}
		var ids []uint64
		o.Walk(func(n *scene.Node) bool {
			if n.IsMesh() && n.Pickable() {
				ids = append(ids, n.ID())
			}
			return true
		})
		return o, ids
	}
	return nil, nil
}

func TestInitBindsSeats(t *testing.T) {
	w := New(WithLogger(quiet()))
	e := newEngine(t, w)

	if w.Current() != "lounge" {
		t.Fatalf("current = %q", w.Current())
	}
	if _, ok := e.Avatars().Local(); !ok {
		t.Fatal("local avatar not created")
	}
	active, _ := e.Rooms().Active()
	sofa, ids := meshesOf(active, "sofa")
	if sofa == nil || len(ids) == 0 {
		t.Fatal("lounge has no sofa meshes")
	}
	i, ok := e.Interaction().Lookup(ids[0])
	if !ok || i.Callbacks.OnInteract == nil || i.Grabbable {
		t.Fatalf("sofa interactable = %+v, registered=%v", i, ok)
	}

	// a tick must not drop the bindings
	e.Update(0.016)
	if _, ok := e.Interaction().Lookup(ids[0]); !ok {
		t.Fatal("bindings lost after a tick")
	}

	i.Callbacks.OnInteract(sofa)
	seat, ok := w.Seated()
	if !ok || seat != sofa {
		t.Fatal("not seated on the sofa")
	}
	want := sofa.WorldPosition().Add(mgl32.Vec3{0, 1.2, 0})
	if got := e.Camera().Position(); got.Sub(want).Len() > 1e-4 {
		t.Fatalf("camera at %v, want %v", got, want)
	}
}

func TestSwitchRoomRebindsAfterAsyncLoad(t *testing.T) {
	w := New(WithLogger(quiet()), WithLocalAvatar(false))
	e := newEngine(t, w)

	lounge, _ := e.Rooms().Active()
	_, sofaIDs := meshesOf(lounge, "sofa")

	if err := e.RequestRoomSwitch("sanctuary"); err != nil {
		t.Fatalf("request: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for w.Current() != "sanctuary" {
		if time.Now().After(deadline) {
			t.Fatalf("room never switched, current %q", w.Current())
		}
		e.Update(0.016)
		time.Sleep(time.Millisecond)
	}

	if _, ok := e.Interaction().Lookup(sofaIDs[0]); ok {
		t.Fatal("lounge seat still registered")
	}
	sanctuary, _ := e.Rooms().Active()
	_, candleIDs := meshesOf(sanctuary, "candle")
	if len(candleIDs) == 0 {
		t.Fatal("sanctuary has no candles")
	}
	if i, ok := e.Interaction().Lookup(candleIDs[0]); !ok || !i.Grabbable {
		t.Fatalf("candle interactable = %+v, registered=%v", i, ok)
	}
	_, pewIDs := meshesOf(sanctuary, "pew")
	if i, ok := e.Interaction().Lookup(pewIDs[0]); !ok || i.Callbacks.OnInteract == nil {
		t.Fatal("pew not bound as a seat")
	}
}

func TestSwitchToPreloadedRoomIsImmediate(t *testing.T) {
	w := New(WithLogger(quiet()), WithLocalAvatar(false))
	e := newEngine(t, w)

	if _, err := e.Rooms().PreloadRoom(context.Background(), "classroom", nil); err != nil {
		t.Fatalf("preload: %v", err)
	}
	if err := e.RequestRoomSwitch("classroom"); err != nil {
		t.Fatalf("request: %v", err)
	}
	e.Update(0.016)
	if w.Current() != "classroom" {
		t.Fatalf("current = %q after one tick", w.Current())
	}
	if lounge, ok := e.Rooms().Room("lounge"); !ok || lounge.Enabled() {
		t.Fatal("lounge should stay loaded and hidden")
	}
}

func TestDisposeUnregisters(t *testing.T) {
	w := New(WithLogger(quiet()), WithLocalAvatar(false))
	e := newEngine(t, w)
	active, _ := e.Rooms().Active()
	_, ids := meshesOf(active, "sofa")

	if err := w.Dispose(); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if _, ok := e.Interaction().Lookup(ids[0]); ok {
		t.Fatal("seat still registered after dispose")
	}
	if w.Current() != "" {
		t.Fatalf("current = %q after dispose", w.Current())
	}
	// ticks after dispose are harmless
	e.Update(0.016)
}

func TestBuilderOptions(t *testing.T) {
	w := New(WithInitialRoom("courtyard"), WithRooms("courtyard", "lounge"), WithSeatHeight(0.9))
	if got := w.Rooms(); len(got) != 2 || got[0] != "courtyard" {
		t.Fatalf("rooms = %v", got)
	}
	impl := w.(*roomWorld)
	if impl.initial != "courtyard" || impl.seatHeight != 0.9 {
		t.Fatalf("initial=%q seat=%v", impl.initial, impl.seatHeight)
	}
	if !w.SupportsRoomSwitching() || w.IsStandalone() {
		t.Fatal("room-world is a switching, engine-rendered module")
	}
	if err := w.SwitchRoom("lounge"); err == nil {
		t.Fatal("switch before init should fail")
	}
}
