package api

import (
	"context"
	"net/http"

	"chat-client/internal/models"
)

// ListServers returns the caller's servers.
func (c *Client) ListServers(ctx context.Context) ([]models.Server, error) {
	var out struct {
		Servers []models.Server `json:"servers"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/servers", "/v1/servers", nil, &out)
	return out.Servers, err
}

// CreateServer creates a server owned by the caller.
func (c *Client) CreateServer(ctx context.Context, name string) (models.Server, error) {
	var server models.Server
	body := map[string]string{"name": name}
	err := c.do(ctx, http.MethodPost, "/v1/servers", "/v1/servers", body, &server)
	return server, err
}

// DeleteServer removes a server.
func (c *Client) DeleteServer(ctx context.Context, serverID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/servers/:id", "/v1/servers/"+serverID, nil, nil)
}

// ServerMembers lists the members of a server.
func (c *Client) ServerMembers(ctx context.Context, serverID string) ([]models.ServerMember, error) {
	var out struct {
		Members []models.ServerMember `json:"members"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/servers/:id/members", "/v1/servers/"+serverID+"/members", nil, &out)
	return out.Members, err
}

// RemoveServerMember kicks a member from a server.
func (c *Client) RemoveServerMember(ctx context.Context, serverID, memberID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/servers/:id/members/:member_id",
		"/v1/servers/"+serverID+"/members/"+memberID, nil, nil)
}
