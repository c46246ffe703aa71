package channel

import "log"

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the relay logger.
func WithHubLogger(l *log.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithQueueSize sets the per-connection outgoing queue length.
func WithQueueSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queue = n
		}
	}
}
