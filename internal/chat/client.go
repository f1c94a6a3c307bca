package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dungeonbooks/marty/internal/delivery"
)

// Client pushes messages to customers through the chat provider's REST
// API. It implements delivery.Transport.
type Client struct {
	baseURL string
	token   string // PUBLIC:PRIVATE
	client  *http.Client
}

// NewClient creates a chat transport.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver pushes one message to a chat client. pushedMessages is the
// endpoint the provider recommends for automated replies.
func (c *Client) Deliver(ctx context.Context, identity, text string) error {
	body, err := json.Marshal(map[string]any{
		"clientId": identity,
		"text":     text,
	})
	if err != nil {
		return delivery.Fatal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pushedMessages", bytes.NewReader(body))
	if err != nil {
		return delivery.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Chatra.Simple "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return delivery.Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return delivery.Transient(fmt.Errorf("chat api: %s", resp.Status))
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return delivery.Fatal(fmt.Errorf("chat api: %s body=%s", resp.Status, respBody))
	}
}
