package sms

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

// Client sends outbound texts through a Sinch-style SMS REST gateway.
// It implements delivery.Transport.
type Client struct {
	baseURL     string
	servicePlan string
	token       string
	from        string
	client      *http.Client
}

// NewClient creates an SMS transport. from is the sending number.
func NewClient(baseURL, servicePlan, token, from string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		servicePlan: servicePlan,
		token:       token,
		from:        from,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver sends one text to one phone number. Gateway overload and
// network trouble come back transient; anything the gateway rejects
// outright, like an invalid recipient, is fatal.
func (c *Client) Deliver(ctx context.Context, identity, text string) error {
	body, err := json.Marshal(map[string]any{
		"from":            c.from,
		"to":              []string{identity},
		"body":            text,
		"delivery_report": "none",
	})
	if err != nil {
		return delivery.Fatal(err)
	}

	endpoint := fmt.Sprintf("%s/xms/v1/%s/batches", c.baseURL, c.servicePlan)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return delivery.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return delivery.Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= 500:
		return delivery.Transient(fmt.Errorf("sms gateway: %s", resp.Status))
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return delivery.Fatal(fmt.Errorf("sms gateway: %s body=%s", resp.Status, respBody))
	}
}
