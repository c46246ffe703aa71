package studio

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine"
	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/module"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

const layout = `{
  "name": "booth",
  "createdAt": "2024-03-01T09:30:00Z",
  "objects": [
    {"prefabName": "stool", "position": {"x": 0, "y": 0, "z": 1}, "rotation": {"x": 0, "y": 0, "z": 0}, "scaling": {"x": 1, "y": 1, "z": 1}},
    {"prefabName": "mic-stand", "position": {"x": 0, "y": 0, "z": 1.5}, "rotation": {"x": 0, "y": 0, "z": 0}, "scaling": {"x": 1, "y": 1, "z": 1}}
  ]
}`

type keys struct {
	mu    sync.Mutex
	state input.ControlState
}

func (k *keys) Poll() input.ControlState {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := k.state
	k.state = input.ControlState{}
	return s
}

func (k *keys) press(ctrl bool, key uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.state = input.ControlState{Ctrl: ctrl, KeysPressed: []uint32{key}}
}

type rig struct {
	engine engine.Engine
	studio Studio
	keys   *keys
	store  room.Store
	dir    string
}

func newRig(t *testing.T) *rig {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "booth.json")
	if err := os.WriteFile(path, []byte(layout), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	store, err := room.OpenStore(filepath.Join(dir, "rooms.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	exports := filepath.Join(dir, "exports")
	if err := os.Mkdir(exports, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r := &rig{keys: &keys{}, store: store, dir: exports}
	r.studio = New(
		WithLogger(quiet()),
		WithRendererKind(renderer.KindSceneGraph),
		WithLayoutFile(path),
		WithStore(store),
		WithExportDir(exports),
	)
	r.engine = engine.NewEngine(
		engine.WithLogger(quiet()),
		engine.WithSize(160, 120),
		engine.WithInput(r.keys),
		engine.WithAudio(audio.NewGraph(audio.WithListener(audio.NewListener()), audio.WithLogger(quiet()))),
	)
	t.Cleanup(func() {
		r.engine.Close()
		store.Close()
	})
	if err := r.engine.Register(r.studio); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.engine.SwitchModule(Name); err != nil {
		t.Fatalf("switch: %v", err)
	}
	return r
}

func TestInitImportsLayoutFile(t *testing.T) {
	r := newRig(t)
	l, err := r.studio.Creator().Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(l.Objects) != 2 || l.Objects[0].PrefabName != "stool" || l.Objects[1].PrefabName != "mic-stand" {
		t.Fatalf("objects = %+v", l.Objects)
	}
}

func TestStudioRendersItsOwnFrames(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 3; i++ {
		r.engine.Update(0.016)
	}
	if frames := r.engine.Renderer().Frames(); frames != 3 {
		t.Fatalf("frames = %d, want one per tick", frames)
	}
	if err := r.engine.RequestRoomSwitch("lounge"); !errors.Is(err, module.ErrRoomSwitchUnsupported) {
		t.Fatalf("room switch err = %v", err)
	}
}

func TestCtrlSSavesToStore(t *testing.T) {
	r := newRig(t)
	r.keys.press(true, common.KeyS)
	r.engine.Update(0.016)
	r.studio.Wait()

	l, meta, err := r.store.Load(context.Background(), "recording booth")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l.Objects) != 2 {
		t.Fatalf("saved %d objects", len(l.Objects))
	}
	if meta == nil || meta.Archetype != room.RecordingBooth.String() {
		t.Fatalf("metadata = %+v", meta)
	}

	// S without ctrl does nothing
	r.keys.press(false, common.KeyS)
	r.engine.Update(0.016)
	r.studio.Wait()
}

func TestCtrlEExportsArchive(t *testing.T) {
	r := newRig(t)
	r.keys.press(true, common.KeyE)
	r.engine.Update(0.016)
	r.studio.Wait()

	matches, err := filepath.Glob(filepath.Join(r.dir, "*.layout.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("exports = %v (%v)", matches, err)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	l, err := r.studio.Creator().ImportArchive(f)
	if err != nil {
		t.Fatalf("import archive: %v", err)
	}
	if len(l.Objects) != 2 {
		t.Fatalf("archive holds %d objects", len(l.Objects))
	}
}

func TestDisposeReleasesCreator(t *testing.T) {
	r := newRig(t)
	if err := r.engine.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.studio.Creator() != nil {
		t.Fatal("creator kept after dispose")
	}
}

func TestMissingLayoutFileFailsInit(t *testing.T) {
	s := New(WithLogger(quiet()), WithRendererKind(renderer.KindSceneGraph), WithLayoutFile(filepath.Join(t.TempDir(), "missing.json")))
	e := engine.NewEngine(engine.WithLogger(quiet()), engine.WithSize(160, 120))
	defer e.Close()
	e.Register(s)
	if err := e.SwitchModule(Name); err == nil {
		t.Fatal("init succeeded without the layout file")
	}
	if _, ok := e.Active(); ok {
		t.Fatal("module active after failed init")
	}
}
