package scene

import "github.com/Carmen-Shannon/oxy-presence/common"

// SceneBuilderOption is a functional option for configuring a Scene.
type SceneBuilderOption func(*sceneImpl)

// WithAllocator sets the allocator that uploads the scene's resources.
// Renderer adapters pass their backend allocator here.
//
// Parameters:
//   - a: the allocator
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAllocator(a Allocator) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.allocator = a
	}
}

// WithBackground sets the initial clear color.
func WithBackground(c common.Color) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.background = c
	}
}

// WithAmbient sets the initial ambient light color.
func WithAmbient(c common.Color) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.ambient = c
	}
}
