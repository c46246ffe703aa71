package scenegraph

import (
	"errors"
	"os"
	"testing"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestRig(t *testing.T, opts ...renderer.RendererBuilderOption) (Adapter, scene.Scene, camera.Camera) {
	t.Helper()
	a := NewAdapter(append([]renderer.RendererBuilderOption{renderer.WithSize(64, 64)}, opts...)...)
	if _, err := a.CreateRenderer(); err != nil {
		t.Fatalf("create renderer: %v", err)
	}
	s := a.CreateScene("test", scene.WithBackground(common.RGB(0, 0, 0)))
	fp := camera.NewFirstPersonController(camera.WithEyePosition(mgl32.Vec3{0, 0, -5}))
	return a, s, a.CreateCamera(camera.WithController(fp))
}

func TestRenderDrawsVisibleMesh(t *testing.T) {
	a, s, c := newTestRig(t)
	mat := scene.NewMaterial("red", common.RGB(1, 0, 0))
	mat.Unlit = true
	if err := s.Add(scene.NewMesh("box", scene.Box("box", 2, 2, 2), mat), nil); err != nil {
		t.Fatal(err)
	}
	if err := a.Render(s, c); err != nil {
		t.Fatalf("render: %v", err)
	}
	img := a.Frame()
	center := img.RGBAAt(32, 32)
	if center.R != 255 || center.G != 0 {
		t.Fatalf("center pixel = %+v, want red", center)
	}
	corner := img.RGBAAt(0, 0)
	if corner.R != 0 {
		t.Fatalf("corner pixel = %+v, want background", corner)
	}
}

func TestRenderCullsBehindCamera(t *testing.T) {
	a, s, c := newTestRig(t)
	mat := scene.NewMaterial("m", common.RGB(1, 1, 1))
	if err := s.Add(scene.NewMesh("behind", scene.Box("b", 1, 1, 1), mat, scene.WithPosition(mgl32.Vec3{0, 0, -20})), nil); err != nil {
		t.Fatal(err)
	}
	if err := a.Render(s, c); err != nil {
		t.Fatal(err)
	}
	r, _ := a.CreateRenderer()
	stats := r.LastFrame()
	if stats.Culled != 1 || stats.Meshes != 0 {
		t.Fatalf("stats = %+v, want one culled mesh", stats)
	}
}

func TestRenderBeforeCreateRenderer(t *testing.T) {
	a := NewAdapter()
	s := a.CreateScene("s")
	if err := a.Render(s, a.CreateCamera()); !errors.Is(err, renderer.ErrNoRenderer) {
		t.Fatalf("err = %v, want ErrNoRenderer", err)
	}
}

func TestDisposeReleasesAllHandles(t *testing.T) {
	a, s, _ := newTestRig(t)
	mat := scene.NewMaterial("m", common.RGB(1, 1, 1))
	for i := 0; i < 3; i++ {
		if err := s.Add(scene.NewMesh("box", scene.Box("b", 1, 1, 1), mat), nil); err != nil {
			t.Fatal(err)
		}
	}
	if a.MemoryAllocator().Live() != 4 {
		t.Fatalf("live = %d, want 4", a.MemoryAllocator().Live())
	}
	r, _ := a.CreateRenderer()
	if err := a.Dispose(s, r); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if a.MemoryAllocator().Live() != 0 {
		t.Fatalf("live after dispose = %d", a.MemoryAllocator().Live())
	}
	if a.Frame() != nil {
		t.Fatalf("frame survived dispose")
	}
}

func TestSnapshotWritesPNG(t *testing.T) {
	dir := t.TempDir()
	a, s, c := newTestRig(t, renderer.WithSnapshotDir(dir))
	if err := a.Render(s, c); err != nil {
		t.Fatal(err)
	}
	path, err := a.Snapshot("frame")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("snapshot file missing: %v", err)
	}
}
