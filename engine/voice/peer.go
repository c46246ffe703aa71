package voice

import (
	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/go-gl/mathgl/mgl32"
)

// Peer is the voice connection to one remote participant.
type Peer struct {
	ID string

	state     State
	conn      Connection
	track     RemoteTrack
	panner    *audio.Panner
	position  mgl32.Vec3
	pending   []Candidate
	remoteSet bool
	muted     bool

	// offered is set while a local offer waits for its answer.
	offered bool
	// signaled is set once the local description has been published. Local candidates
	// gathered before then wait in outbox.
	signaled bool
	outbox   []Candidate
}

// PeerInfo is a snapshot of a peer.
type PeerInfo struct {
	ID       string
	State    State
	Position mgl32.Vec3
	Muted    bool
	Attached bool
}

func (p *Peer) info() PeerInfo {
	return PeerInfo{ID: p.ID, State: p.state, Position: p.position, Muted: p.muted, Attached: p.panner != nil}
}

func emitterID(peerID string) string {
	return "voice:" + peerID
}
