package events

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// Hub pushes events to connected admin dashboards over websocket.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

// client owns one connection; only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub accepts upgrades from the given origins; "*" or an empty list
// accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[*client]struct{})}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
		h.add(cl)
		defer h.remove(cl)
		go cl.writePump()

		// the feed is one-way; reading only detects the close
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// writePump drains send until the hub closes it, then closes the socket.
func (cl *client) writePump() {
	defer cl.conn.Close()
	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logx.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	h.dropLocked(cl)
	h.mu.Unlock()
}

// dropLocked closes send at most once; callers hold h.mu.
func (h *Hub) dropLocked(cl *client) {
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues the event for every client without touching the sockets.
// A client whose buffer is full is disconnected.
func (h *Hub) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			logx.Debug().Msg("dropping slow websocket client")
			h.dropLocked(cl)
		}
	}
	return nil
}
