package models

import (
	"strings"
	"time"
)

const localIDPrefix = "local-"

// Message is the client-side canonical message form. ID holds a provisional
// local id until the backend confirms persistence, after which the
// authoritative id and created-at replace the provisional values.
type Message struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"room_id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Confirmed reports whether the message carries a backend-assigned id.
func (m Message) Confirmed() bool {
	return m.ID != "" && !strings.HasPrefix(m.ID, localIDPrefix)
}

// LocalID builds a provisional message id from a unique suffix.
func LocalID(suffix string) string {
	return localIDPrefix + suffix
}

// NewMessage is the create-message request body.
type NewMessage struct {
	SenderID string `json:"sender_id"`
	RoomID   string `json:"room_id"`
	Content  string `json:"content"`
}
