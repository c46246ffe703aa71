package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestAddRemoveReleasesSharedResources(t *testing.T) {
	alloc := NewMemoryAllocator()
	s := NewScene("test", WithAllocator(alloc))

	geo := Box("crate", 1, 1, 1)
	mat := NewMaterial("wood", common.RGB(0.6, 0.4, 0.2))
	a := NewMesh("a", geo, mat)
	b := NewMesh("b", geo, mat, WithPosition(mgl32.Vec3{2, 0, 0}))

	if err := s.Add(a, nil); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := s.Add(b, nil); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if alloc.Live() != 2 {
		t.Fatalf("live = %d, want 2 (shared geometry and material)", alloc.Live())
	}

	if err := s.Remove(a); err != nil {
		t.Fatalf("remove a: %v", err)
	}
	if alloc.Live() != 2 {
		t.Fatalf("live after first remove = %d, want 2", alloc.Live())
	}
	if err := s.Remove(b); err != nil {
		t.Fatalf("remove b: %v", err)
	}
	if alloc.Live() != 0 {
		t.Fatalf("live after removing all = %d, want 0", alloc.Live())
	}
	if s.Count() != 0 {
		t.Fatalf("count = %d", s.Count())
	}
}

func TestAddTwiceFails(t *testing.T) {
	s := NewScene("test")
	n := NewNode("group")
	if err := s.Add(n, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(n, nil); !errors.Is(err, ErrNodeAttached) {
		t.Fatalf("second add err = %v", err)
	}
}

func TestReparentKeepsWorldPosition(t *testing.T) {
	s := NewScene("test")
	holder := NewNode("hand", WithPosition(mgl32.Vec3{5, 1, 0}))
	item := NewMesh("cup", Box("cup", 0.2, 0.2, 0.2), NewMaterial("white", common.RGB(1, 1, 1)),
		WithPosition(mgl32.Vec3{1, 1, 1}))
	if err := s.Add(holder, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(item, nil); err != nil {
		t.Fatal(err)
	}

	original := item.Parent()
	if err := s.Reparent(item, holder, true); err != nil {
		t.Fatalf("reparent: %v", err)
	}
	if !item.WorldPosition().ApproxEqualThreshold(mgl32.Vec3{1, 1, 1}, 1e-5) {
		t.Fatalf("world position moved to %v", item.WorldPosition())
	}
	if err := s.Reparent(item, original, true); err != nil {
		t.Fatalf("reparent back: %v", err)
	}
	if item.Parent() != original {
		t.Fatalf("parent not restored")
	}
	if err := s.Reparent(holder, holder, false); err == nil {
		t.Fatalf("reparent under self should fail")
	}
}

func TestRaycastSkipsHiddenAndUnpickable(t *testing.T) {
	s := NewScene("test")
	mat := NewMaterial("m", common.RGB(1, 1, 1))
	near := NewMesh("near", Box("b", 1, 1, 1), mat, WithPosition(mgl32.Vec3{0, 0, 3}))
	far := NewMesh("far", Box("b", 1, 1, 1), mat, WithPosition(mgl32.Vec3{0, 0, 6}))
	for _, n := range []*Node{near, far} {
		if err := s.Add(n, nil); err != nil {
			t.Fatal(err)
		}
	}
	ray := common.Ray{Origin: mgl32.Vec3{0, 0, 0}, Direction: mgl32.Vec3{0, 0, 1}}

	hit, ok := s.Raycast(ray, nil)
	if !ok || hit.Node != near {
		t.Fatalf("expected near hit, got %+v ok=%v", hit, ok)
	}
	near.SetVisible(false)
	hit, ok = s.Raycast(ray, nil)
	if !ok || hit.Node != far {
		t.Fatalf("hidden node was hit")
	}
	far.SetPickable(false)
	if _, ok := s.Raycast(ray, nil); ok {
		t.Fatalf("unpickable node was hit")
	}
}

func TestDisposeReleasesEverything(t *testing.T) {
	alloc := NewMemoryAllocator()
	s := NewScene("test", WithAllocator(alloc))
	tex := NewTexture("checker", 2, 2, make([]byte, 16))
	mat := NewMaterial("tex", common.RGB(1, 1, 1))
	mat.Texture = tex
	group := NewNode("group", WithChildren(
		NewMesh("a", Plane("floor", 4, 4), mat),
		NewMesh("b", Sphere("ball", 1, 8, 8), mat),
	))
	if err := s.Add(group, nil); err != nil {
		t.Fatal(err)
	}
	if alloc.Live() != 4 {
		t.Fatalf("live = %d, want 4", alloc.Live())
	}
	if err := s.Dispose(); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if alloc.Live() != 0 {
		t.Fatalf("live after dispose = %d", alloc.Live())
	}
	if tex.Handle() != 0 || mat.Handle() != 0 {
		t.Fatalf("handles not cleared")
	}
}
