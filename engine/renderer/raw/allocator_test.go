package raw

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
)

func TestAllocatorTracksPendingHandles(t *testing.T) {
	alloc := newGPUAllocator()
	s := scene.NewScene("pending", scene.WithAllocator(alloc))
	mesh := scene.NewMesh("box", scene.Box("box", 1, 1, 1), scene.NewMaterial("m", common.RGB(1, 1, 1)))
	if err := s.Add(mesh, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if alloc.Live() != 2 {
		t.Fatalf("live = %d, want 2", alloc.Live())
	}
	if err := s.Dispose(); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if alloc.Live() != 0 {
		t.Fatalf("live after dispose = %d", alloc.Live())
	}
	if err := alloc.Release(99); !errors.Is(err, scene.ErrUnknownHandle) {
		t.Fatalf("release unknown = %v", err)
	}
}
