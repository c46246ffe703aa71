package studio

import (
	"log"

	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
)

// StudioBuilderOption configures the studio module.
type StudioBuilderOption func(*studio)

// WithLogger sets the module logger.
func WithLogger(l *log.Logger) StudioBuilderOption {
	return func(s *studio) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRoom sets the room being edited.
func WithRoom(name string) StudioBuilderOption {
	return func(s *studio) {
		if name != "" {
			s.roomName = name
		}
	}
}

// WithLayoutFile imports a room export document on Init.
func WithLayoutFile(path string) StudioBuilderOption {
	return func(s *studio) {
		s.layout = path
	}
}

// WithStore enables Ctrl+S saving into an authored room store.
func WithStore(store room.Store) StudioBuilderOption {
	return func(s *studio) {
		s.store = store
	}
}

// WithExportDir enables Ctrl+E archive exports into dir.
func WithExportDir(dir string) StudioBuilderOption {
	return func(s *studio) {
		s.exportDir = dir
	}
}

// WithRendererKind overrides the adapter the module asks for. Headless runs use the
// scene-graph adapter.
func WithRendererKind(k renderer.Kind) StudioBuilderOption {
	return func(s *studio) {
		s.kind = k
	}
}
