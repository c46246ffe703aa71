package channel

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub is the relay server. It fans every message out to the other connections in the
// same room and delivers messages with To set to that participant only.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader
	queue    int

	mu    sync.Mutex
	rooms map[string]map[string]*hubClient
}

type hubClient struct {
	id   string
	room string
	out  chan []byte
	conn *websocket.Conn
}

// NewHub creates a relay hub.
func NewHub(options ...HubOption) *Hub {
	h := &Hub{
		logger: log.New(os.Stdout, "[relay] ", log.LstdFlags|log.Lmicroseconds),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		queue: 64,
		rooms: make(map[string]map[string]*hubClient),
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

// Occupants returns the number of connections in room.
func (h *Hub) Occupants(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// ServeHTTP upgrades the request and relays until the client disconnects. The room and
// participant id come from the room and id query parameters.
func (h *Hub) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	room, id := r.URL.Query().Get("room"), r.URL.Query().Get("id")
	if room == "" || id == "" {
		http.Error(rw, "room and id are required", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &hubClient{id: id, room: room, out: make(chan []byte, h.queue), conn: conn}
	h.join(c)
	defer h.leave(c)

	done := make(chan struct{})
	defer close(done)
	go h.writeLoop(c, done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		var m Message
		if err := json.Unmarshal(b, &m); err != nil {
			continue
		}
		m.From, m.Room = c.id, c.room
		h.route(m)
	}
}

func (h *Hub) writeLoop(c *hubClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) join(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.room] == nil {
		h.rooms[c.room] = make(map[string]*hubClient)
	}
	if old, ok := h.rooms[c.room][c.id]; ok {
		_ = old.conn.Close()
	}
	h.rooms[c.room][c.id] = c
	h.logger.Printf("%s joined %s (%d present)", c.id, c.room, len(h.rooms[c.room]))
}

func (h *Hub) leave(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.room][c.id] != c {
		return
	}
	delete(h.rooms[c.room], c.id)
	if len(h.rooms[c.room]) == 0 {
		delete(h.rooms, c.room)
	}
	h.logger.Printf("%s left %s", c.id, c.room)
}

func (h *Hub) route(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.rooms[m.Room] {
		if id == m.From || (m.To != "" && id != m.To) {
			continue
		}
		select {
		case c.out <- b:
		default:
			h.logger.Printf("queue full for %s, dropped %s/%s", id, m.Topic, m.Type)
		}
	}
}
