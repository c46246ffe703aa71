package multiplayer

import (
	"context"
	"log"

	"github.com/Carmen-Shannon/oxy-presence/engine/avatar"
	"github.com/Carmen-Shannon/oxy-presence/engine/voice"
	"github.com/go-gl/mathgl/mgl32"
)

// Sink receives remote participant changes from the tick.
type Sink interface {
	Joined(id, name string)
	Moved(id string, position, rotation mgl32.Vec3)
	Left(id string)
}

type avatarSink struct {
	m      avatar.Manager
	logger *log.Logger
}

// AvatarSink drives network avatars. Avatars that cannot be created are logged and skipped.
func AvatarSink(m avatar.Manager, logger *log.Logger) Sink {
	return avatarSink{m: m, logger: logger}
}

func (s avatarSink) Joined(id, name string) {
	if _, err := s.m.CreateNetworkAvatar(id, name); err != nil {
		s.logger.Printf("create avatar for %s: %v", id, err)
	}
}

func (s avatarSink) Moved(id string, position, rotation mgl32.Vec3) {
	s.m.UpdateNetworkAvatar(id, position, rotation)
}

func (s avatarSink) Left(id string) {
	s.m.RemoveNetworkAvatar(id)
}

type voiceSink struct {
	ctx    context.Context
	m      voice.Manager
	logger *log.Logger
}

// VoiceSink calls participants as they join, keeps voice panners at each participant's
// position and hangs up on leave. Of each pair only the lower id calls (see voice.Offers);
// the call runs on its own goroutine.
//
// Parameters:
//   - ctx: bounds the calls
//   - m: the local voice manager
//   - logger: receives failed calls
//
// Returns:
//   - Sink: the voice sink
func VoiceSink(ctx context.Context, m voice.Manager, logger *log.Logger) Sink {
	return voiceSink{ctx: ctx, m: m, logger: logger}
}

func (s voiceSink) Joined(id, _ string) {
	if !voice.Offers(s.m.ID(), id) {
		return
	}
	go func() {
		if err := s.m.Call(s.ctx, id); err != nil {
			s.logger.Printf("call %s: %v", id, err)
		}
	}()
}

func (s voiceSink) Moved(id string, position, _ mgl32.Vec3) {
	s.m.SetPeerPosition(id, position)
}

func (s voiceSink) Left(id string) {
	s.m.Hangup(id)
}
