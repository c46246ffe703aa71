package voice

import (
	"context"
	"errors"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
)

// ErrMicrophoneDenied is returned when local capture cannot start.
var ErrMicrophoneDenied = errors.New("microphone access denied")

// Connection is one negotiated media connection to a remote participant.
type Connection interface {
	// Offer creates an offer and sets it as the local description.
	Offer() (SessionDescription, error)
	// Answer applies a remote offer and returns the local answer.
	Answer(remote SessionDescription) (SessionDescription, error)
	// SetAnswer applies the remote answer to an earlier offer.
	SetAnswer(remote SessionDescription) error
	// AddCandidate adds a remote ICE candidate. The remote description must be set.
	AddCandidate(c Candidate) error
	// WriteSample sends one encoded audio frame.
	WriteSample(data []byte, duration time.Duration) error
	// SetSending enables or disables the outgoing track.
	SetSending(on bool) error
	// SetReceiving enables or disables incoming audio without closing the connection.
	SetReceiving(on bool)
	// Close releases the connection.
	Close() error
}

// RemoteTrack is incoming audio from a peer.
type RemoteTrack interface {
	// Level is the latest RMS amplitude in [0, 1].
	Level() float32
	// Source is decoded PCM for the mixer, or nil when no decoder is configured.
	Source() audio.Source
	// Stop ends reading.
	Stop()
}

// ConnectionEvents are raised by a Connection on its own goroutines.
type ConnectionEvents struct {
	OnCandidate func(Candidate)
	OnTrack     func(RemoteTrack)
	OnState     func(connection string)
}

// Factory opens connections.
type Factory interface {
	New(peerID string, events ConnectionEvents) (Connection, error)
}

// Sample is one encoded frame of captured audio.
type Sample struct {
	Data     []byte
	Duration time.Duration
	// Level is the RMS amplitude of the frame before encoding.
	Level float32
}

// Capture is an open microphone.
type Capture interface {
	ReadSample(ctx context.Context) (Sample, error)
	Close() error
}

// Microphone opens local capture.
type Microphone interface {
	Open(ctx context.Context) (Capture, error)
}

// NoMicrophone always refuses access.
type NoMicrophone struct{}

func (NoMicrophone) Open(context.Context) (Capture, error) {
	return nil, ErrMicrophoneDenied
}
