package renderer

import "fmt"

// Kind identifies which rendering engine an Adapter wraps.
type Kind int

const (
	// KindSceneGraph selects the software scene-graph adapter.
	KindSceneGraph Kind = iota

	// KindRaw selects the wgpu adapter that draws straight to a window surface.
	KindRaw
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSceneGraph:
		return "scenegraph"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration string to a Kind.
//
// Parameters:
//   - s: "scenegraph" or "raw"
//
// Returns:
//   - Kind: the parsed kind
//   - error: error if s names no known adapter
func ParseKind(s string) (Kind, error) {
	switch s {
	case "scenegraph", "scene-graph", "":
		return KindSceneGraph, nil
	case "raw", "wgpu":
		return KindRaw, nil
	default:
		return KindSceneGraph, fmt.Errorf("unknown renderer kind %q", s)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps "vsync" or "uncapped" to a PresentMode. Anything else is VSync.
func ParsePresentMode(s string) PresentMode {
	if s == "uncapped" || s == "immediate" {
		return PresentModeUncapped
	}
	return PresentModeVSync
}
