package brokertest

import (
	"testing"

	"github.com/gorilla/websocket"
)

func TestAddClient(t *testing.T) {
	hub := NewHub()
	conn := new(websocket.Conn)

	hub.AddClient("room-1", conn)
	if got := hub.RoomSize("room-1"); got != 1 {
		t.Fatalf("expected 1 client in room, got %d", got)
	}

	// Adding the same connection twice must not double-count it.
	hub.AddClient("room-1", conn)
	if got := hub.RoomSize("room-1"); got != 1 {
		t.Fatalf("expected 1 client after duplicate add, got %d", got)
	}
}

func TestRemoveClient(t *testing.T) {
	hub := NewHub()
	conn := new(websocket.Conn)
	other := new(websocket.Conn)

	hub.AddClient("room-1", conn)
	hub.AddClient("room-1", other)

	hub.RemoveClient("room-1", conn)
	if got := hub.RoomSize("room-1"); got != 1 {
		t.Fatalf("expected 1 client after removal, got %d", got)
	}

	hub.RemoveClient("room-1", other)
	if got := hub.RoomSize("room-1"); got != 0 {
		t.Fatalf("expected empty room, got %d", got)
	}

	// Removing from a room that no longer exists is a no-op.
	hub.RemoveClient("room-1", conn)
}

func TestRemoveFromAll(t *testing.T) {
	hub := NewHub()
	conn := new(websocket.Conn)
	other := new(websocket.Conn)

	hub.AddClient("room-1", conn)
	hub.AddClient("room-2", conn)
	hub.AddClient("room-2", other)

	hub.RemoveFromAll(conn)

	if got := hub.RoomSize("room-1"); got != 0 {
		t.Fatalf("expected room-1 empty, got %d", got)
	}
	if got := hub.RoomSize("room-2"); got != 1 {
		t.Fatalf("expected 1 client left in room-2, got %d", got)
	}
}
