package xr

import "fmt"

// SessionMode is the kind of session requested from the runtime.
type SessionMode int

const (
	ModeInline SessionMode = iota
	ModeImmersiveVR
	ModeImmersiveAR
)

func (m SessionMode) String() string {
	switch m {
	case ModeInline:
		return "inline"
	case ModeImmersiveVR:
		return "immersive-vr"
	case ModeImmersiveAR:
		return "immersive-ar"
	}
	return fmt.Sprintf("SessionMode(%d)", int(m))
}

// SessionState is the lifecycle of an XR session.
type SessionState int

const (
	// StateIdle has no session; the engine runs in desktop mode.
	StateIdle SessionState = iota
	// StateRequesting is waiting for the runtime to start a session.
	StateRequesting
	// StateActive has a running immersive session.
	StateActive
	// StateEnding is tearing down anchors and controllers.
	StateEnding
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}
