package channel

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketOption configures a websocket channel before it dials.
type WebSocketOption func(*webSocketChannel, **websocket.Dialer)

// WithLogger sets the channel logger.
func WithLogger(l *log.Logger) WebSocketOption {
	return func(c *webSocketChannel, _ **websocket.Dialer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHandshakeTimeout bounds the websocket handshake.
func WithHandshakeTimeout(d time.Duration) WebSocketOption {
	return func(_ *webSocketChannel, dialer **websocket.Dialer) {
		copied := **dialer
		copied.HandshakeTimeout = d
		*dialer = &copied
	}
}
