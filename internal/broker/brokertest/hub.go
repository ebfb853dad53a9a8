// Package brokertest runs an in-process real-time hub speaking the client's
// frame protocol, for use in tests.
package brokertest

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"chat-client/internal/broker"
)

// Hub maintains active websocket rooms.
type Hub struct {
	rooms map[string]map[*websocket.Conn]bool
	mu    sync.RWMutex

	// gorilla connections allow one concurrent writer; every write to a
	// member conn goes through its lock.
	writeLocks sync.Map
}

func (h *Hub) lockFor(conn *websocket.Conn) *sync.Mutex {
	mu, _ := h.writeLocks.LoadOrStore(conn, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]bool)}
}

// AddClient registers a websocket connection to a room.
func (h *Hub) AddClient(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[roomID][conn] = true
}

// RemoveClient removes a websocket connection from a room.
func (h *Hub) RemoveClient(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// RemoveFromAll removes a websocket connection from every room.
func (h *Hub) RemoveFromAll(conn *websocket.Conn) {
	h.mu.Lock()
	for roomID, conns := range h.rooms {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
	h.writeLocks.Delete(conn)
}

// Broadcast sends a frame to all clients joined to the room.
func (h *Hub) Broadcast(roomID string, frame broker.Frame) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[roomID]))
	for conn := range h.rooms[roomID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, err := frame.Encode()
	if err != nil {
		log.Printf("brokertest encode error: %v", err)
		return
	}
	for _, conn := range conns {
		mu := h.lockFor(conn)
		mu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, payload)
		mu.Unlock()
		if err != nil {
			log.Printf("brokertest write error: %v", err)
			conn.Close()
			h.RemoveClient(roomID, conn)
		}
	}
}

// RoomSize reports how many connections are joined to the room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
