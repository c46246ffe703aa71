// Package config loads the engine's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/movement"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded file fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the whole configuration file.
type Config struct {
	Engine      Engine      `yaml:"engine"`
	Window      Window      `yaml:"window"`
	Renderer    Renderer    `yaml:"renderer"`
	Rooms       Rooms       `yaml:"rooms"`
	Movement    Movement    `yaml:"movement"`
	Voice       Voice       `yaml:"voice"`
	Multiplayer Multiplayer `yaml:"multiplayer"`
	XR          XR          `yaml:"xr"`
	Identity    Identity    `yaml:"identity"`
}

type Engine struct {
	TickRate   float64 `yaml:"tickRate"`
	FrameLimit float64 `yaml:"frameLimit"`
	Profiling  bool    `yaml:"profiling"`
	Module     string  `yaml:"module"`
	Room       string  `yaml:"room"`
	Headless   bool    `yaml:"headless"`
}

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// CursorLocked captures the mouse for first-person look on startup.
	CursorLocked bool `yaml:"cursorLocked"`
}

type Renderer struct {
	// Adapter overrides the module's renderer kind: "scenegraph" or "raw". Empty keeps it.
	Adapter     string `yaml:"adapter"`
	PresentMode string `yaml:"presentMode"`
	SnapshotDir string `yaml:"snapshotDir"`
}

type Rooms struct {
	StorePath    string        `yaml:"storePath"`
	Workers      int           `yaml:"workers"`
	EyeHeight    float32       `yaml:"eyeHeight"`
	StoreTimeout time.Duration `yaml:"storeTimeout"`
	ExportDir    string        `yaml:"exportDir"`
}

type Movement struct {
	Mode             string        `yaml:"mode"`
	MoveSpeed        float32       `yaml:"moveSpeed"`
	VerticalSpeed    float32       `yaml:"verticalSpeed"`
	TeleportCooldown time.Duration `yaml:"teleportCooldown"`
	SnapTurnAngle    float32       `yaml:"snapTurnAngle"`
	SnapTurnCooldown time.Duration `yaml:"snapTurnCooldown"`
}

type Voice struct {
	Enabled    bool     `yaml:"enabled"`
	ICEServers []string `yaml:"iceServers"`
	SampleRate int      `yaml:"sampleRate"`
}

type Multiplayer struct {
	RelayURL string        `yaml:"relayURL"`
	Throttle time.Duration `yaml:"throttle"`
}

type XR struct {
	Enabled bool `yaml:"enabled"`
	// Runtime is "none" or "simulated".
	Runtime string `yaml:"runtime"`
}

// Identity is what the shell passes in about the local user.
type Identity struct {
	ParticipantID string `yaml:"participantID"`
	DisplayName   string `yaml:"displayName"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine:   Engine{TickRate: 60, Module: "room-world", Room: "lounge"},
		Window:   Window{Title: "oxy presence", Width: 1280, Height: 720},
		Renderer: Renderer{PresentMode: "fifo"},
		Rooms:    Rooms{Workers: 2, EyeHeight: 1.6, StoreTimeout: 2 * time.Second},
		Movement: Movement{
			Mode:             "desktop",
			MoveSpeed:        3,
			VerticalSpeed:    2,
			TeleportCooldown: 500 * time.Millisecond,
			SnapTurnAngle:    45,
			SnapTurnCooldown: 300 * time.Millisecond,
		},
		Voice: Voice{
			Enabled:    true,
			ICEServers: []string{"stun:stun.l.google.com:19302"},
			SampleRate: 48000,
		},
		Multiplayer: Multiplayer{Throttle: 50 * time.Millisecond},
		XR:          XR{Runtime: "none"},
		Identity:    Identity{DisplayName: "guest"},
	}
}

// Load reads a YAML file over the defaults. Missing keys keep their default value.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the merged configuration
//   - error: read, parse or validation failure
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the values other packages would reject later.
func (c Config) Validate() error {
	var errs []error
	if c.Engine.TickRate < 0 {
		errs = append(errs, fmt.Errorf("engine.tickRate %v is negative", c.Engine.TickRate))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Renderer.Adapter != "" {
		if _, err := renderer.ParseKind(c.Renderer.Adapter); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := movement.ParseMode(c.Movement.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Rooms.Workers < 1 {
		errs = append(errs, fmt.Errorf("rooms.workers %d", c.Rooms.Workers))
	}
	switch c.XR.Runtime {
	case "", "none", "simulated":
	default:
		errs = append(errs, fmt.Errorf("xr.runtime %q", c.XR.Runtime))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Write encodes c as YAML.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
