package status

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	INFO = iota
	ERROR
	CHANGED
)

type status struct {
	Message string
	Time    time.Time
	Type    int
	// frame path for CHANGED messages
	Path string `json:",omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Warn().Err(err).Msg("[status] ws write msg error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Msg("[status] ws write ping error")
				return
			}
		}
	}
}

// readPump only drains control frames and notices disconnects.
func (c *client) readPump() {
	defer c.hub.unregisterClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub broadcasts status messages to every connected websocket client.
// New clients get the last message replayed.
type Hub struct {
	broadcast   chan *status
	clients     map[*client]bool
	lock        sync.Mutex
	lastMessage []byte
	upgrader    websocket.Upgrader
	done        chan struct{}
	closeOnce   sync.Once
}

func NewHub() *Hub {
	h := &Hub{
		broadcast: make(chan *status, 16),
		clients:   make(map[*client]bool),
		done:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case s := <-h.broadcast:
			data, err := json.Marshal(s)
			if err != nil {
				log.Error().Err(err).Msg("[status] marshal")
				continue
			}
			h.lock.Lock()
			h.lastMessage = data
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					log.Warn().Msg("[status] client is too slow, dropping message")
				}
			}
			h.lock.Unlock()
		case <-h.done:
			h.lock.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.lock.Unlock()
			return
		}
	}
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.clients[c] = true
	if h.lastMessage != nil {
		c.send <- h.lastMessage
	}
}

func (h *Hub) unregisterClient(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Last returns the last broadcasted message, nil if there was none.
func (h *Hub) Last() []byte {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.lastMessage
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("[status] upgrade")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, 32)}
	h.registerClient(c)
	go c.writePump()
	go c.readPump()
}

func (h *Hub) Status(msg string, _type int, path string) {
	select {
	case <-h.done:
		return
	default:
	}
	s := &status{
		Message: msg,
		Time:    time.Now(),
		Type:    _type,
		Path:    path,
	}
	select {
	case h.broadcast <- s:
	case <-h.done:
	}
}

func (h *Hub) Info(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), INFO, "")
}

func (h *Hub) Error(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), ERROR, "")
}

// Changed tells clients that the frame at path was created or moved.
func (h *Hub) Changed(path string) {
	h.Status("changed "+path, CHANGED, path)
}
