package api

import (
	"context"
	"net/http"

	"chat-client/internal/models"
)

// ListFriendships returns the caller's friendships, pending and accepted.
func (c *Client) ListFriendships(ctx context.Context) ([]models.Friendship, error) {
	var out struct {
		Friendships []models.Friendship `json:"friendships"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/friendships", "/v1/friendships", nil, &out)
	return out.Friendships, err
}

// CreateFriendRequest sends a friend request to a username.
func (c *Client) CreateFriendRequest(ctx context.Context, addresseeUsername string) (models.Friendship, error) {
	var friendship models.Friendship
	body := map[string]string{"addressee_username": addresseeUsername}
	err := c.do(ctx, http.MethodPost, "/v1/friendships", "/v1/friendships", body, &friendship)
	return friendship, err
}

// AcceptFriendship accepts a pending friend request.
func (c *Client) AcceptFriendship(ctx context.Context, friendshipID string) (models.Friendship, error) {
	var friendship models.Friendship
	err := c.do(ctx, http.MethodPost, "/v1/friendships/:id/accept",
		"/v1/friendships/"+friendshipID+"/accept", nil, &friendship)
	return friendship, err
}

// DeleteFriendship removes or declines a friendship.
func (c *Client) DeleteFriendship(ctx context.Context, friendshipID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/friendships/:id", "/v1/friendships/"+friendshipID, nil, nil)
}

// ListDirectMessageChannels returns the caller's DM threads.
func (c *Client) ListDirectMessageChannels(ctx context.Context) ([]models.DirectMessageChannel, error) {
	var out struct {
		Channels []models.DirectMessageChannel `json:"direct_message_channels"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/direct-message-channels", "/v1/direct-message-channels", nil, &out)
	return out.Channels, err
}

// CreateDirectMessageChannel opens (or returns the existing) DM thread with a user.
func (c *Client) CreateDirectMessageChannel(ctx context.Context, userID string) (models.DirectMessageChannel, error) {
	var channel models.DirectMessageChannel
	body := map[string]string{"user_id": userID}
	err := c.do(ctx, http.MethodPost, "/v1/direct-message-channels", "/v1/direct-message-channels", body, &channel)
	return channel, err
}
