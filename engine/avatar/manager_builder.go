package avatar

import "log"

// ManagerBuilderOption configures a Manager.
type ManagerBuilderOption func(*managerImpl)

// WithLogger sets the logger used for per-frame recoveries and no-op failures.
func WithLogger(l *log.Logger) ManagerBuilderOption {
	return func(m *managerImpl) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCustomization sets the initial local look.
func WithCustomization(c Customization) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.look = c
	}
}
