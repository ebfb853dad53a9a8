package api

import (
	"context"
	"net/http"

	"chat-client/internal/models"
)

// ListChannels returns the channels of a server.
func (c *Client) ListChannels(ctx context.Context, serverID string) ([]models.Channel, error) {
	var out struct {
		Channels []models.Channel `json:"channels"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/servers/:id/channels", "/v1/servers/"+serverID+"/channels", nil, &out)
	return out.Channels, err
}

// GetChannel fetches one channel.
func (c *Client) GetChannel(ctx context.Context, channelID string) (models.Channel, error) {
	var channel models.Channel
	err := c.do(ctx, http.MethodGet, "/v1/channels/:id", "/v1/channels/"+channelID, nil, &channel)
	return channel, err
}

// CreateChannel adds a channel to a server.
func (c *Client) CreateChannel(ctx context.Context, serverID, name, channelType string) (models.Channel, error) {
	var channel models.Channel
	body := map[string]string{"name": name, "type": channelType}
	err := c.do(ctx, http.MethodPost, "/v1/servers/:id/channels", "/v1/servers/"+serverID+"/channels", body, &channel)
	return channel, err
}

// DeleteChannel removes a channel.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/channels/:id", "/v1/channels/"+channelID, nil, nil)
}
