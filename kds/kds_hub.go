package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/sirupsen/logrus"
)

// AllFranchises subscribes a client to every franchise.
const AllFranchises uint = 0

const EventOrderCreated = "order_created"

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

const (
	// sendBuffer is how many messages a slow display may fall behind
	// before it is dropped.
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

// deadliner is implemented by *websocket.Conn.
type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

type client struct {
	conn        Conn
	franchiseID uint
	send        chan []byte
}

// Hub fans committed orders out to the kitchen displays of their franchise.
// Each display has its own writer goroutine, so a stalled display never
// blocks a broadcast.
type Hub struct {
	clients map[Conn]*client
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]*client)}
}

// Register subscribes conn to franchiseID, or to all with AllFranchises.
func (h *Hub) Register(conn Conn, franchiseID uint) {
	c := &client{conn: conn, franchiseID: franchiseID, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	if old, ok := h.clients[conn]; ok {
		h.remove(old)
	}
	h.clients[conn] = c
	h.mutex.Unlock()

	go h.writePump(c)
}

func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if c, ok := h.clients[conn]; ok {
		h.remove(c)
	}
}

// remove must be called with the mutex held.
func (h *Hub) remove(c *client) {
	delete(h.clients, c.conn)
	close(c.send)
	c.conn.Close()
}

// Clients is the number of open subscriptions.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) BroadcastOrderCreated(order models.Order) {
	h.broadcast(order.FranchiseID, Message{Event: EventOrderCreated, Data: order})
}

// broadcast queues msg for the subscribers of franchiseID and for global
// subscribers. A subscriber whose queue is full is dropped.
func (h *Hub) broadcast(franchiseID uint, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error marshaling message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	queued := 0
	for _, c := range h.clients {
		if c.franchiseID != AllFranchises && c.franchiseID != franchiseID {
			continue
		}
		select {
		case c.send <- data:
			queued++
		default:
			utils.ErrorLogger.WithField("franchise_id", c.franchiseID).Warn("kitchen display too slow, dropping")
			h.remove(c)
		}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"event":        msg.Event,
		"franchise_id": franchiseID,
		"clients":      queued,
	}).Debug("broadcast")
}

// writePump writes queued messages to one display until its queue is closed
// or a write fails.
func (h *Hub) writePump(c *client) {
	for data := range c.send {
		if d, ok := c.conn.(deadliner); ok {
			d.SetWriteDeadline(time.Now().Add(writeWait))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithError(err).Warn("Error sending message to client")
			h.mutex.Lock()
			if h.clients[c.conn] == c {
				h.remove(c)
			}
			h.mutex.Unlock()
			return
		}
	}
}
