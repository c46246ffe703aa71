package engine

import (
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/Carmen-Shannon/oxy-presence/engine/avatar"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/interaction"
	"github.com/Carmen-Shannon/oxy-presence/engine/movement"
	"github.com/Carmen-Shannon/oxy-presence/engine/multiplayer"
	"github.com/Carmen-Shannon/oxy-presence/engine/profiler"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/voice"
	"github.com/Carmen-Shannon/oxy-presence/engine/window"
	"github.com/Carmen-Shannon/oxy-presence/engine/xr"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithLogger sets the logger shared by the engine and the subsystems it creates.
func WithLogger(l *log.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit sets an optional render rate cap in frames per second.
// Pass 0 to render every tick (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window the engine runs its message loop on. Its callbacks feed the
// desktop and gamepad input sources unless WithInput is also given.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithSize sets the framebuffer size used by headless adapters.
func WithSize(width, height int) EngineBuilderOption {
	return func(e *engine) {
		if width > 0 && height > 0 {
			e.width, e.height = width, height
		}
	}
}

// WithAdapter registers the adapter factory for a renderer kind, replacing any default.
//
// Parameters:
//   - kind: the renderer kind modules ask for
//   - factory: called once per module load
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAdapter(kind renderer.Kind, factory AdapterFactory) EngineBuilderOption {
	return func(e *engine) {
		e.adapters[kind] = factory
	}
}

// WithInput sets the control source polled at the start of every tick.
func WithInput(src input.Source) EngineBuilderOption {
	return func(e *engine) {
		e.source = src
	}
}

// WithRoomOptions passes options to the room manager created for each module load.
func WithRoomOptions(options ...room.ManagerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.roomOptions = append(e.roomOptions, options...)
	}
}

// WithMovement fixes the locomotion mode for the session.
//
// Parameters:
//   - mode: the mode combination
//   - options: controller tuning
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMovement(mode movement.Mode, options ...movement.ControllerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.movementMode = mode
		e.movementOptions = options
	}
}

// WithInteraction replaces the interaction layer.
func WithInteraction(l interaction.Layer) EngineBuilderOption {
	return func(e *engine) {
		e.layer = l
	}
}

// WithXRRuntime sets the platform XR binding. Without it the session never leaves idle.
func WithXRRuntime(rt xr.Runtime) EngineBuilderOption {
	return func(e *engine) {
		e.xrRuntime = rt
	}
}

// WithAvatars replaces the avatar manager.
func WithAvatars(m avatar.Manager) EngineBuilderOption {
	return func(e *engine) {
		e.avatars = m
	}
}

// WithAudio replaces the audio graph. The default graph uses the process-wide listener.
func WithAudio(g audio.Graph) EngineBuilderOption {
	return func(e *engine) {
		e.graph = g
	}
}

// WithVoice enables voice chat. The engine feeds peer positions from multiplayer and
// drives avatar lip-sync from the voice levels.
func WithVoice(v voice.Manager) EngineBuilderOption {
	return func(e *engine) {
		e.voice = v
	}
}

// WithMultiplayer enables pose sync. The engine joins once the first room is active.
//
// Parameters:
//   - s: the sync bound to a channel
//   - displayName: the name announced to other participants
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMultiplayer(s multiplayer.Sync, displayName string) EngineBuilderOption {
	return func(e *engine) {
		e.sync = s
		if displayName != "" {
			e.displayName = displayName
		}
	}
}
