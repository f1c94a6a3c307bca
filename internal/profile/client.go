package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider returns a short opaque summary of a customer for prompt
// context. Callers treat a failed lookup as an empty summary; a missing
// profile is never surfaced to the customer.
type Provider interface {
	Summary(ctx context.Context, identity string) (string, error)
}

// Client fetches customer summaries from the profile/purchase-history
// service.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a profile client for the given endpoint.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Summary returns the provider's one-line summary for identity. An
// unknown customer is an empty summary, not an error.
func (c *Client) Summary(ctx context.Context, identity string) (string, error) {
	endpoint := c.baseURL + "/customers/" + url.PathEscape(identity) + "/summary"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("profile api error: %s", resp.Status)
	}

	var payload struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Summary, nil
}
