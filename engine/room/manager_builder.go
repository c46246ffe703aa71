package room

import (
	"log"
	"time"
)

// ManagerBuilderOption configures a Manager.
type ManagerBuilderOption func(*managerImpl)

// WithStore sets the authored room store consulted before procedural generation.
func WithStore(s Store) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.store = s
	}
}

// WithWorkers sets the maximum number of concurrent asynchronous builds.
func WithWorkers(n int) ManagerBuilderOption {
	return func(m *managerImpl) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithEyeHeight sets the camera height above spawn points.
func WithEyeHeight(h float32) ManagerBuilderOption {
	return func(m *managerImpl) {
		if h > 0 {
			m.eyeHeight = h
		}
	}
}

// WithStoreTimeout bounds each store lookup.
func WithStoreTimeout(d time.Duration) ManagerBuilderOption {
	return func(m *managerImpl) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithOnLoad sets a callback run after each room load is applied. The callback runs with the
// manager locked and must not call back into it.
func WithOnLoad(fn func(*Room)) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.onLoad = fn
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *log.Logger) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.logger = logger
	}
}
