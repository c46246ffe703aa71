package voice

// Signal message types on the signal topic.
const (
	SignalOffer     = "offer"
	SignalAnswer    = "answer"
	SignalCandidate = "ice-candidate"
)

// Moderation message types on the moderation topic.
const (
	ModerationMute     = "mute"
	ModerationKick     = "kick"
	ModerationRoomLock = "room-lock"
)

// SessionDescription is an SDP offer or answer.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// Candidate is one trickled ICE candidate.
type Candidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// Moderation is the payload of every moderation message.
type Moderation struct {
	Target string `json:"target,omitempty"`
	Locked bool   `json:"locked,omitempty"`
}

// Offers reports whether local places the call to remote. Exactly one side of a pair offers:
// the one with the lower id.
func Offers(local, remote string) bool {
	return local < remote
}
