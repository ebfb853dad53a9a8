package models

import "time"

// DirectMessageChannel is a one-to-one message thread between two users.
type DirectMessageChannel struct {
	ID        string    `json:"id"`
	UserOneID string    `json:"user_one_id"`
	UserTwoID string    `json:"user_two_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Friendship statuses as reported by the backend.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship links a requester and an addressee.
type Friendship struct {
	ID                string `json:"id"`
	RequesterID       string `json:"requester_id"`
	RequesterUsername string `json:"requester_username"`
	AddresseeID       string `json:"addressee_id"`
	AddresseeUsername string `json:"addressee_username"`
	Status            string `json:"status"`
}
