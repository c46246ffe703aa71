package config

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseOverridesOnlyGivenKeys(t *testing.T) {
	c, err := Parse([]byte(`
engine:
  module: studio
movement:
  mode: vr-teleport
  teleportCooldown: 750ms
multiplayer:
  relayURL: ws://localhost:8088/ws
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d := Default()
	if c.Engine.Module != "studio" || c.Engine.TickRate != d.Engine.TickRate {
		t.Fatalf("engine = %+v", c.Engine)
	}
	if c.Movement.Mode != "vr-teleport" || c.Movement.TeleportCooldown != 750*time.Millisecond {
		t.Fatalf("movement = %+v", c.Movement)
	}
	if c.Movement.MoveSpeed != d.Movement.MoveSpeed {
		t.Fatal("unset key lost its default")
	}
	if c.Multiplayer.RelayURL != "ws://localhost:8088/ws" {
		t.Fatalf("relay = %q", c.Multiplayer.RelayURL)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	for _, doc := range []string{
		"movement:\n  mode: hover\n",
		"renderer:\n  adapter: vulkan\n",
		"window:\n  width: 0\n",
		"xr:\n  runtime: quest\n",
		"rooms:\n  workers: 0\n",
	} {
		if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%q: err = %v", doc, err)
		}
	}
	if _, err := Parse([]byte("engine: [")); err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("malformed yaml err = %v", err)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presence.yaml")
	c := Default()
	c.Identity = Identity{ParticipantID: "p-1", DisplayName: "Ada"}
	c.Voice.ICEServers = []string{"stun:a", "stun:b"}
	if err := c.Write(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Fatalf("round trip:\n got %+v\nwant %+v", got, c)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file loaded")
	}
}
