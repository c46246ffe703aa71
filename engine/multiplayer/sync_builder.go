package multiplayer

import (
	"log"
	"time"
)

// SyncBuilderOption configures a Sync.
type SyncBuilderOption func(*syncImpl)

// WithLogger sets the multiplayer logger.
func WithLogger(l *log.Logger) SyncBuilderOption {
	return func(s *syncImpl) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInterval sets the minimum time between outgoing pose updates.
func WithInterval(d time.Duration) SyncBuilderOption {
	return func(s *syncImpl) {
		if d > 0 {
			s.interval = d
		}
	}
}
