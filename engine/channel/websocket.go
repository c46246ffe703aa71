package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = pongWait * 9 / 10
)

type webSocketChannel struct {
	id     string
	room   string
	logger *log.Logger
	conn   *websocket.Conn
	subs   *subscribers

	writeMu sync.Mutex

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

var _ Channel = &webSocketChannel{}

// NewWebSocketChannel dials the relay hub at rawURL and joins room as participant id.
//
// Parameters:
//   - ctx: bounds the dial only
//   - rawURL: ws:// or wss:// address of the relay
//   - room: room to join
//   - id: local participant id
//   - options: functional options
//
// Returns:
//   - Channel: the connected channel
//   - error: if the URL is invalid or the dial fails
func NewWebSocketChannel(ctx context.Context, rawURL, room, id string, options ...WebSocketOption) (Channel, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("room", room)
	q.Set("id", id)
	u.RawQuery = q.Encode()

	c := &webSocketChannel{
		id:     id,
		room:   room,
		logger: log.New(os.Stdout, "[channel] ", log.LstdFlags|log.Lmicroseconds),
		subs:   newSubscribers(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	dialer := websocket.DefaultDialer
	for _, opt := range options {
		opt(c, &dialer)
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	c.conn = conn
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

func (c *webSocketChannel) ID() string { return c.id }

func (c *webSocketChannel) Publish(ctx context.Context, m Message) error {
	select {
	case <-c.stop:
		return ErrChannelClosed
	default:
	}
	m.From = c.id
	m.Room = c.room
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("publish %s: %w", m.Type, err)
	}
	return nil
}

func (c *webSocketChannel) Subscribe(topic string) (<-chan Message, func()) {
	return c.subs.add(topic)
}

func (c *webSocketChannel) readLoop() {
	defer close(c.done)
	defer c.subs.close()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stop:
			default:
				c.logger.Printf("relay read: %v", err)
			}
			return
		}
		var m Message
		if err := json.Unmarshal(b, &m); err != nil {
			c.logger.Printf("drop malformed message: %v", err)
			continue
		}
		if !c.subs.deliver(m) {
			c.logger.Printf("subscriber full, dropped %s/%s from %s", m.Topic, m.Type, m.From)
		}
	}
}

func (c *webSocketChannel) pingLoop() {
	t := time.NewTicker(pingEvery)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-c.done:
			return
		case <-t.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *webSocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
		<-c.done
	})
	return err
}
