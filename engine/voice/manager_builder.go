package voice

import "log"

// ManagerBuilderOption configures a Manager.
type ManagerBuilderOption func(*managerImpl)

// WithLogger sets the voice logger.
func WithLogger(l *log.Logger) ManagerBuilderOption {
	return func(m *managerImpl) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMicrophone sets the capture device.
func WithMicrophone(mic Microphone) ManagerBuilderOption {
	return func(m *managerImpl) {
		if mic != nil {
			m.mic = mic
		}
	}
}

// WithPeerHandler is called, with the manager locked, whenever a peer changes state.
// It must not call back into the manager.
func WithPeerHandler(fn func(id string, s State)) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.onPeer = fn
	}
}

// WithKickHandler is called when a moderator kicks the local participant.
func WithKickHandler(fn func()) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.onKick = fn
	}
}
