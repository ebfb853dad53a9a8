package models

import "time"

// Server represents a chat server owning a set of channels.
type Server struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Channel represents a text channel within a server.
type Channel struct {
	ID       string `json:"id"`
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

// ServerMember is a member of a server as listed by the backend.
type ServerMember struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
