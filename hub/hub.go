package hub

import (
	"encoding/json"
	"sync"

	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gorilla/websocket"
)

// Event types
const (
	EventBookingCreated = "booking_created"
	EventBookingUpdate  = "booking_update"
	EventBookingDelete  = "booking_delete"
	EventTableUpdate    = "table_update"
	EventTableCreate    = "table_create"
	EventTableDelete    = "table_delete"
	EventNotification   = "notification"
	EventContact        = "contact_message"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client identifies who is behind a connection.
type Client struct {
	UserID string
	Role   string
}

// Hub tracks live websocket connections for the admin dashboard and chat.
type Hub struct {
	clients map[Conn]Client
	mutex   sync.Mutex
}

func New() *Hub {
	return &Hub{clients: make(map[Conn]Client)}
}

func (h *Hub) Register(conn Conn, client Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = client
}

func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mutex.Unlock()

	if ok {
		conn.Close()
	}
}

// Broadcast sends an event to every client whose role is listed, or to all
// clients when no role is given.
func (h *Hub) Broadcast(event string, data interface{}, roles ...string) int {
	return h.deliver(Message{Event: event, Data: data}, func(c Client) bool {
		if len(roles) == 0 {
			return true
		}
		for _, r := range roles {
			if c.Role == r {
				return true
			}
		}
		return false
	})
}

// SendToUsers delivers the event to every connection of the given users.
func (h *Hub) SendToUsers(event string, data interface{}, userIDs ...string) int {
	return h.SendRaw(Message{Event: event, Data: data}, userIDs...)
}

// SendRaw marshals v as-is and delivers it to the given users.
func (h *Hub) SendRaw(v interface{}, userIDs ...string) int {
	want := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		want[id] = struct{}{}
	}
	return h.deliver(v, func(c Client) bool {
		_, ok := want[c.UserID]
		return ok
	})
}

// SendTo writes v to a single connection, serialised with other hub writes.
func (h *Hub) SendTo(conn Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// OnlineUsers lists distinct connected user ids, filtered by role if given.
func (h *Hub) OnlineUsers(role string) []Client {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	seen := make(map[string]bool)
	var out []Client
	for _, c := range h.clients {
		if role != "" && c.Role != role {
			continue
		}
		if seen[c.UserID] {
			continue
		}
		seen[c.UserID] = true
		out = append(out, c)
	}
	return out
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// deliver writes to matching clients and drops connections that fail.
func (h *Hub) deliver(v interface{}, match func(Client) bool) int {
	data, err := json.Marshal(v)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling hub message: %v", err)
		return 0
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for conn, client := range h.clients {
		if !match(client) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Dropping stale connection for user %s: %v", client.UserID, err)
			delete(h.clients, conn)
			conn.Close()
			continue
		}
		sent++
	}
	return sent
}
