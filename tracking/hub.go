// Package tracking is the real-time location subsystem: an in-memory
// presence registry fed by supplier GPS pings, and a websocket hub fanning
// location/presence/delivery events out to map and order-tracking clients.
package tracking

import (
	"github.com/gorilla/websocket"
)

// Room keys
const RoomAllSuppliers = "suppliers"

func RoomSupplier(supplierID string) string { return "supplier_" + supplierID }
func RoomOrder(orderID string) string      { return "order_" + orderID }

type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	UserID string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 256),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true

		case c := <-h.unregister:
			if conns := h.rooms[c.Room]; conns != nil {
				if conns[c] {
					delete(conns, c)
					close(c.Send)
				}
				if len(conns) == 0 {
					delete(h.rooms, c.Room)
				}
			}

		case m := <-h.broadcast:
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					// Slow subscriber; drop it rather than stall the hub
					close(c.Send)
					delete(h.rooms[m.Room], c)
				}
			}

		case <-h.quit:
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) Register(c *Client) {
	h.register <- c
}

func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Broadcast queues data for every client in the room. The channel is
// buffered so callers (the registry actor in particular) never block on
// subscriber delivery.
func (h *Hub) Broadcast(room string, data []byte) {
	h.broadcast <- broadcastMsg{Room: room, Data: data}
}
