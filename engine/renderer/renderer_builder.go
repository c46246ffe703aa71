package renderer

import (
	"log"
	"os"
)

// Config holds the settings shared by every adapter. Adapters build it from
// RendererBuilderOption values with NewConfig.
type Config struct {
	Width       int
	Height      int
	PresentMode PresentMode
	// ForceFallbackAdapter asks wgpu for a software adapter. Ignored by the scene-graph adapter.
	ForceFallbackAdapter bool
	// SnapshotDir is where the scene-graph adapter writes PNG snapshots. Empty disables snapshots.
	SnapshotDir string
	Logger      *log.Logger
}

// RendererBuilderOption is a functional option applied to an adapter's Config.
type RendererBuilderOption func(*Config)

// NewConfig applies options over the defaults (1280x720, vsync, stdout logger).
//
// Parameters:
//   - prefix: the log prefix used when no logger is supplied
//   - options: options to apply
//
// Returns:
//   - Config: the resolved configuration
func NewConfig(prefix string, options ...RendererBuilderOption) Config {
	cfg := Config{
		Width:       1280,
		Height:      720,
		PresentMode: PresentModeVSync,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	}
	if cfg.Width <= 0 {
		cfg.Width = 1
	}
	if cfg.Height <= 0 {
		cfg.Height = 1
	}
	return cfg
}

// WithSize sets the initial framebuffer size in pixels.
//
// Parameters:
//   - width: framebuffer width
//   - height: framebuffer height
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option
func WithSize(width, height int) RendererBuilderOption {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(c *Config) {
		c.PresentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(c *Config) {
		c.ForceFallbackAdapter = force
	}
}

// WithSnapshotDir enables PNG snapshots in dir.
func WithSnapshotDir(dir string) RendererBuilderOption {
	return func(c *Config) {
		c.SnapshotDir = dir
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *log.Logger) RendererBuilderOption {
	return func(c *Config) {
		c.Logger = l
	}
}
