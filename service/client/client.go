// Package client implements the store server HTTP API client shared by the
// sync engine and the one-shot push/pull commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clipbridge/clipbridge/model"
)

// Client talks to the store server HTTP API on behalf of one endpoint.
type Client struct {
	baseURL    string
	origin     model.Origin
	httpClient *http.Client
}

// Push sends a clip payload tagged with the client endpoint origin.
func (c *Client) Push(ctx context.Context, kind model.Kind, data string, mime string) error {
	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON marshal (data): %w", err)
	}

	body, err := json.Marshal(model.PushRequest{
		Type:   string(kind),
		Data:   rawData,
		Mime:   mime,
		Source: string(c.origin),
	})
	if err != nil {
		return fmt.Errorf("JSON marshal (request): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clip", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST /clip: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /clip: server responded with %d", resp.StatusCode)
	}

	return nil
}

// Pull fetches the latest clip from the store server.
// An empty store is not an error: it returns (nil, nil).
func (c *Client) Pull(ctx context.Context) (*model.Clip, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/clip/latest", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET /clip/latest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)

		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)

		return nil, fmt.Errorf("GET /clip/latest: server responded with %d", resp.StatusCode)
	}

	clip := model.Clip{}
	if err := json.NewDecoder(resp.Body).Decode(&clip); err != nil {
		return nil, fmt.Errorf("JSON decode: %w", err)
	}

	return &clip, nil
}

// Origin returns the endpoint origin the client pushes under.
func (c *Client) Origin() model.Origin {
	return c.origin
}

// NewClient creates a new Client object.
func NewClient(baseURL string, origin model.Origin, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%s: must be non-empty", "baseURL")
	}
	if _, err := model.ParseOrigin(string(origin)); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "timeout")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		origin:     origin,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}
