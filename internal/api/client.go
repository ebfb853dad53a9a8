// Package api is the authenticated REST client for the chat backend. Every
// call carries the bearer credential and is traced and measured.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"chat-client/internal/observability"
)

// TokenSource supplies the current bearer credential.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to the chat backend.
type Client struct {
	baseURL string
	creds   TokenSource
	http    *http.Client
}

// NewClient constructs a Client for the backend at baseURL.
func NewClient(baseURL string, creds TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// do issues one request. route is the parameterized form used for metric and
// span labels; path is the concrete request path.
func (c *Client) do(ctx context.Context, method, route, path string, body, out interface{}) error {
	ctx, span := otel.Tracer("chat-client/api").Start(ctx, method+" "+route)
	defer span.End()

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	token, err := c.creds.Token()
	if err != nil {
		return fmt.Errorf("resolve credential: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveAPIRequest(method, route, "error", time.Since(start))
		return &RequestError{Method: method, Route: route, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveAPIRequest(method, route, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{Method: method, Route: route, Status: resp.StatusCode, Err: decodeError(resp)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Method: method, Route: route, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return errors.New(body.Error)
	}
	return errors.New(http.StatusText(resp.StatusCode))
}
