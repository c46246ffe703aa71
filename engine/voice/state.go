package voice

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event does not apply to a peer's state.
var ErrInvalidTransition = errors.New("invalid voice peer transition")

// State is the lifecycle position of one voice peer.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind names what happened to a peer.
type EventKind int

const (
	EventOfferSent EventKind = iota
	EventOfferReceived
	EventAnswerReceived
	EventTrackAttached
	EventConnectionState
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventOfferSent:
		return "offer-sent"
	case EventOfferReceived:
		return "offer-received"
	case EventAnswerReceived:
		return "answer-received"
	case EventTrackAttached:
		return "track-attached"
	case EventConnectionState:
		return "connection-state"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one input to Transition. Connection is set for EventConnectionState and
// holds the transport's state name ("new", "connecting", "connected", "disconnected",
// "failed", "closed").
type Event struct {
	Kind       EventKind
	Connection string
}

// Terminal reports whether a transport state ends the peer.
func Terminal(connection string) bool {
	switch connection {
	case "failed", "closed", "disconnected":
		return true
	}
	return false
}

// Transition is the only place a peer's state changes.
//
// Parameters:
//   - s: the current state
//   - e: the event
//
// Returns:
//   - State: the next state
//   - error: ErrInvalidTransition when e does not apply to s
func Transition(s State, e Event) (State, error) {
	if e.Kind == EventClose {
		return StateDisconnected, nil
	}
	if s == StateDisconnected {
		return s, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, e.Kind, s)
	}
	if e.Kind == EventConnectionState && Terminal(e.Connection) {
		return StateDisconnected, nil
	}

	switch s {
	case StateIdle:
		switch e.Kind {
		case EventOfferSent, EventOfferReceived:
			return StateConnecting, nil
		}
	case StateConnecting:
		switch e.Kind {
		case EventAnswerReceived, EventOfferReceived:
			return StateConnecting, nil
		case EventTrackAttached:
			return StateConnected, nil
		case EventConnectionState:
			return StateConnecting, nil
		}
	case StateConnected:
		switch e.Kind {
		case EventTrackAttached, EventOfferReceived, EventOfferSent, EventAnswerReceived, EventConnectionState:
			return StateConnected, nil
		}
	}
	return s, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, e.Kind, s)
}
