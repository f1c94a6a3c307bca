package books

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Book is one search hit from the catalog provider.
type Book struct {
	ID     string
	Title  string
	Author string
}

// Finder resolves free text to catalog entities.
type Finder interface {
	Search(ctx context.Context, query string, limit int) ([]Book, error)
}

// Client talks to a Hardcover-style GraphQL book catalog.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a catalog client for the given endpoint.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

const searchQuery = `query SearchBooks($query: String!, $limit: Int!) {
  search(query: $query, query_type: "books", per_page: $limit) {
    results { id title author }
  }
}`

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type searchResponse struct {
	Data struct {
		Search struct {
			Results []struct {
				ID     string `json:"id"`
				Title  string `json:"title"`
				Author string `json:"author"`
			} `json:"results"`
		} `json:"search"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search looks up books matching query. Include author terms in the
// query for better results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Book, error) {
	if limit <= 0 {
		limit = 5
	}
	body, err := json.Marshal(gqlRequest{
		Query:     searchQuery,
		Variables: map[string]any{"query": query, "limit": limit},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("books api error: %s body=%s", resp.Status, respBody)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("books api error: %s", out.Errors[0].Message)
	}

	hits := make([]Book, 0, len(out.Data.Search.Results))
	for _, r := range out.Data.Search.Results {
		hits = append(hits, Book{ID: r.ID, Title: r.Title, Author: r.Author})
	}
	return hits, nil
}

// PurchaseLink builds an affiliate search link for a title.
func PurchaseLink(title, affiliateID string) string {
	keywords := strings.ReplaceAll(title, " ", "+")
	return fmt.Sprintf("https://bookshop.org/search?keywords=%s&affiliate=%s", keywords, affiliateID)
}
