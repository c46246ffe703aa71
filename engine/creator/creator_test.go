package creator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	width  = 800
	height = 600
)

var fixed = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

type fixture struct {
	scene   scene.Scene
	cam     camera.Camera
	rooms   room.Manager
	creator Creator
	room    *room.Room
}

func newFixture(t *testing.T, name string) fixture {
	t.Helper()
	s := scene.NewScene("creator")
	cam := camera.NewCamera(
		camera.WithController(camera.NewFirstPersonController()),
		camera.WithAspect(float32(width)/float32(height)),
	)
	rooms := room.NewManager(s, cam, room.WithLogger(quiet()))
	r, err := rooms.LoadRoom(context.Background(), name, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cam.Update()
	c := NewCreator(s, WithLogger(quiet()), WithClock(func() time.Time { return fixed }))
	c.Enable(r)
	return fixture{scene: s, cam: cam, rooms: rooms, creator: c, room: r}
}

const threeObjects = `{
  "name": "studio",
  "createdAt": "2024-03-01T09:30:00Z",
  "objects": [
    {"prefabName": "chair", "position": {"x": 1, "y": 0, "z": -4}, "rotation": {"x": 0, "y": 1.5, "z": 0}, "scaling": {"x": 1, "y": 1, "z": 1}},
    {"prefabName": "table", "position": {"x": 0, "y": 0, "z": -3}, "rotation": {"x": 0, "y": 0, "z": 0}, "scaling": {"x": 2, "y": 1, "z": 1}},
    {"prefabName": "lamp", "position": {"x": -2.5, "y": 0, "z": 2}, "rotation": {"x": 0, "y": 0, "z": 0}, "scaling": {"x": 1, "y": 1.5, "z": 1}}
  ]
}`

func sameObjects(t *testing.T, got, want []room.LayoutObject) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%d objects, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("object %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t, "lounge")
	imported, err := f.creator.Import([]byte(threeObjects))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(f.room.Objects()) != 3 {
		t.Fatalf("room holds %d objects after import", len(f.room.Objects()))
	}

	exported, err := f.creator.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	sameObjects(t, exported.Objects, imported.Objects)
	if !exported.CreatedAt.Equal(fixed) || exported.Name != "lounge" {
		t.Fatalf("export header = %q %v", exported.Name, exported.CreatedAt)
	}

	data, err := f.creator.ExportJSON()
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	other := newFixture(t, "courtyard")
	again, err := other.creator.Import(data)
	if err != nil {
		t.Fatalf("reimport: %v", err)
	}
	sameObjects(t, again.Objects, imported.Objects)
	final, _ := other.creator.Export()
	sameObjects(t, final.Objects, imported.Objects)

	var archive bytes.Buffer
	if err := f.creator.ExportArchive(&archive); err != nil {
		t.Fatalf("archive: %v", err)
	}
	third := newFixture(t, "classroom")
	fromArchive, err := third.creator.ImportArchive(&archive)
	if err != nil {
		t.Fatalf("import archive: %v", err)
	}
	sameObjects(t, fromArchive.Objects, imported.Objects)
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	f := newFixture(t, "lounge")
	before := len(f.room.Objects())
	for _, doc := range []string{
		`not json`,
		`{"objects": []}`,
		`{"name": "x", "objects": [{"position": {"x": 0, "y": 0, "z": 0}}]}`,
		`{"name": "x", "objects": [{"prefabName": "chair", "position": {"x": "left", "y": 0, "z": 0}}]}`,
		`{"name": "x", "objects": [{"prefabName": "chair", "position": {"x": 0, "y": 0}}]}`,
	} {
		if _, err := f.creator.Import([]byte(doc)); !errors.Is(err, ErrInvalidLayout) {
			t.Fatalf("%s: err = %v", doc, err)
		}
	}
	if len(f.room.Objects()) != before {
		t.Fatal("invalid import modified the room")
	}
	if _, err := f.creator.ImportArchive(bytes.NewReader([]byte("garbage"))); !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("bad archive err = %v", err)
	}
}

func TestImportSkipsUnknownPrefabs(t *testing.T) {
	f := newFixture(t, "lounge")
	doc := `{"name": "x", "objects": [
		{"prefabName": "chair", "position": {"x": 0, "y": 0, "z": 0}},
		{"prefabName": "hovercraft", "position": {"x": 1, "y": 0, "z": 0}}
	]}`
	if _, err := f.creator.Import([]byte(doc)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if n := len(f.room.Objects()); n != 1 {
		t.Fatalf("objects = %d, want 1", n)
	}
}

func TestShortcuts(t *testing.T) {
	f := newFixture(t, "lounge")
	f.creator.Import([]byte(`{"name": "x", "objects": []}`))
	crate, err := f.creator.Place("crate", mgl32.Vec3{1.2, 0, -3.9})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if crate.Position() != (mgl32.Vec3{1, 0, -4}) {
		t.Fatalf("placed at %v, want grid-snapped (1,0,-4)", crate.Position())
	}
	if _, err := f.creator.Place("hovercraft", mgl32.Vec3{}); !errors.Is(err, ErrUnknownPrefab) {
		t.Fatalf("unknown prefab err = %v", err)
	}

	press := func(keys ...uint32) input.ControlState {
		return input.ControlState{KeysPressed: keys}
	}
	f.creator.Update(f.cam, input.ControlState{KeysPressed: []uint32{common.KeyD}, Ctrl: true}, width, height)
	if n := len(f.room.Objects()); n != 2 {
		t.Fatalf("objects after duplicate = %d", n)
	}
	dup, _ := f.creator.Selected()
	if dup == crate || dup.Position() != (mgl32.Vec3{1.5, 0, -4}) {
		t.Fatalf("duplicate at %v", dup.Position())
	}

	f.creator.Update(f.cam, press(common.KeyR), width, height)
	if got := dup.Rotation().Y(); math.Abs(float64(got-mgl32.DegToRad(RotateStep))) > 1e-5 {
		t.Fatalf("rotation = %v", got)
	}
	f.creator.Update(f.cam, input.ControlState{KeysPressed: []uint32{common.KeyUp}, Ctrl: true}, width, height)
	if got := dup.Scale().X(); math.Abs(float64(got-ScaleStep)) > 1e-5 {
		t.Fatalf("scale = %v", got)
	}

	f.creator.Update(f.cam, press(common.KeyDelete), width, height)
	if dup.Attached() || len(f.room.Objects()) != 1 {
		t.Fatal("delete left the duplicate in the room")
	}
	if _, ok := f.creator.Selected(); ok {
		t.Fatal("selection survived delete")
	}
	for _, m := range f.room.Meshes() {
		if !m.Attached() {
			t.Fatal("room mesh list still holds deleted meshes")
		}
	}
}

func pixel(cam camera.Camera, p mgl32.Vec3) mgl32.Vec2 {
	win := mgl32.Project(p, cam.ViewMatrix(), cam.ProjectionMatrix(), 0, 0, width, height)
	return mgl32.Vec2{win.X(), float32(height) - win.Y()}
}

func TestPickAndDragSnapsToGrid(t *testing.T) {
	f := newFixture(t, "lounge")
	f.creator.Import([]byte(`{"name": "x", "objects": [{"prefabName": "crate", "position": {"x": 0, "y": 0, "z": -6}}]}`))
	crate := f.room.Objects()[0]

	at := pixel(f.cam, mgl32.Vec3{0, 0.5, -6})
	f.creator.Update(f.cam, input.ControlState{Pointer: at, HasPointer: true, Primary: true, PrimaryPressed: true}, width, height)
	if sel, ok := f.creator.Selected(); !ok || sel != crate {
		t.Fatalf("click on the crate selected %v", sel)
	}

	to := pixel(f.cam, mgl32.Vec3{1.3, 0.5, -6})
	f.creator.Update(f.cam, input.ControlState{Pointer: to, HasPointer: true, Primary: true}, width, height)
	f.creator.Update(f.cam, input.ControlState{Pointer: to, HasPointer: true, PrimaryReleased: true}, width, height)

	p := crate.Position()
	if p.Y() != 0 {
		t.Fatalf("drag changed height to %v", p.Y())
	}
	if p.X() <= 0 {
		t.Fatalf("crate did not move right: %v", p)
	}
	for _, v := range []float32{p.X(), p.Z()} {
		if r := math.Mod(float64(v), float64(DefaultGrid)); math.Abs(r) > 1e-4 && math.Abs(r)-float64(DefaultGrid) < -1e-4 {
			t.Fatalf("position %v not on the grid", p)
		}
	}

	// clicking empty sky clears the selection
	f.creator.Update(f.cam, input.ControlState{Pointer: mgl32.Vec2{width / 2, 2}, HasPointer: true, Primary: true, PrimaryPressed: true}, width, height)
	if _, ok := f.creator.Selected(); ok {
		t.Fatal("selection kept after clicking nothing")
	}
}

func TestSaveToStore(t *testing.T) {
	ctx := context.Background()
	store, err := room.OpenStore(filepath.Join(t.TempDir(), "rooms.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	f := newFixture(t, "lounge")
	imported, _ := f.creator.Import([]byte(threeObjects))
	if err := f.creator.Save(ctx, store); err != nil {
		t.Fatalf("save: %v", err)
	}
	l, meta, err := store.Load(ctx, "lounge")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sameObjects(t, l.Objects, imported.Objects)
	if meta == nil || meta.Archetype != f.room.Metadata.Archetype {
		t.Fatalf("metadata = %+v", meta)
	}
}

func TestDisabledCreatorRefusesEdits(t *testing.T) {
	f := newFixture(t, "lounge")
	f.creator.Disable()
	if _, err := f.creator.Place("chair", mgl32.Vec3{}); !errors.Is(err, ErrNoRoom) {
		t.Fatalf("place err = %v", err)
	}
	if _, err := f.creator.Export(); !errors.Is(err, ErrNoRoom) {
		t.Fatalf("export err = %v", err)
	}
	if err := f.creator.Delete(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("delete err = %v", err)
	}
}
