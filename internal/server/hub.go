package server

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// event is one JSON message pushed to browser clients. Type tells the
// client how to interpret the rest of the fields. Zero is a legitimate
// payload for most fields (cell (0,0), counter at 0, paused false), so
// only fields whose zero value always means "absent" are omitempty.
type event struct {
	Type string `json:"type"`

	Rows  int `json:"rows,omitempty"`
	Cols  int `json:"cols,omitempty"`
	Mines int `json:"mines,omitempty"`

	Row  int `json:"row"`
	Col  int `json:"col"`
	Cell any `json:"cell,omitempty"`

	Value   int    `json:"value"`
	Seconds int    `json:"seconds"`
	Display string `json:"display,omitempty"`

	Won       bool `json:"won"`
	NewRecord bool `json:"new_record"`
	Paused    bool `json:"paused"`

	Index     int    `json:"index"`
	Caption   string `json:"caption,omitempty"`
	CaptionAt string `json:"caption_at,omitempty"`
	Finished  bool   `json:"finished"`
}

// hub fans events out to every connected websocket client. Each client
// gets a buffered send channel drained by its own write loop; a client
// that cannot keep up has events dropped rather than blocking the game.
type hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

func newHub() *hub {
	return &hub{clients: make(map[*client]bool)}
}

type client struct {
	conn *websocket.Conn
	send chan event
}

func (h *hub) add(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan event, 256)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast queues an event for every client, non-blocking.
func (h *hub) broadcast(e event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			slog.Warn("dropping event, client send buffer full", "type", e.Type)
		}
	}
}

// writeLoop drains the send channel into the websocket until the
// channel closes or a write fails. A failed write removes the client
// immediately rather than waiting for the read side to notice.
func (c *client) writeLoop(h *hub) {
	defer h.remove(c)
	for e := range c.send {
		if err := c.conn.WriteJSON(e); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
}

// readLoop consumes client frames until the connection drops. Commands
// arrive over HTTP, not the socket, so inbound frames are discarded.
func (c *client) readLoop(h *hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
