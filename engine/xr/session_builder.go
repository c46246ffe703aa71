package xr

import (
	"log"

	"github.com/Carmen-Shannon/oxy-presence/engine/interaction"
)

// SessionBuilderOption configures a Session.
type SessionBuilderOption func(*sessionImpl)

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.logger = logger
	}
}

// WithInteraction registers portals with an interaction layer so they can be activated.
func WithInteraction(layer interaction.Layer) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.layer = layer
	}
}

// WithPortalHandler sets the function called with the room name when a portal is activated.
func WithPortalHandler(fn func(room string)) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.onPortal = fn
	}
}
