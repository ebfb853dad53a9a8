package api

import (
	"context"
	"net/http"

	"chat-client/internal/models"
)

// RoomMessages fetches a room's message history, ordered oldest to newest.
// This is the hydration fetch: it runs once per room activation.
func (c *Client) RoomMessages(ctx context.Context, room models.Room) ([]models.Message, error) {
	route, path := roomMessagesRoute(room)
	var out struct {
		Messages []models.Message `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, route, path, nil, &out)
	return out.Messages, err
}

// CreateRoomMessage persists a message in a room and returns the backend's
// authoritative form (id and created-at assigned).
func (c *Client) CreateRoomMessage(ctx context.Context, room models.Room, msg models.NewMessage) (models.Message, error) {
	route, path := roomMessagesRoute(room)
	var created models.Message
	err := c.do(ctx, http.MethodPost, route, path, msg, &created)
	return created, err
}

// DeleteRoomMessage removes a message from a room.
func (c *Client) DeleteRoomMessage(ctx context.Context, room models.Room, messageID string) error {
	route, path := roomMessagesRoute(room)
	return c.do(ctx, http.MethodDelete, route+"/:message_id", path+"/"+messageID, nil, nil)
}

// roomMessagesRoute maps a room to its history endpoint. The room kind is the
// only dispatch input; room ids are never re-parsed from anything else.
func roomMessagesRoute(room models.Room) (route, path string) {
	if room.Kind == models.RoomDirectMessage {
		return "/v1/direct-message-channels/:id/messages", "/v1/direct-message-channels/" + room.ID + "/messages"
	}
	return "/v1/channels/:id/messages", "/v1/channels/" + room.ID + "/messages"
}
