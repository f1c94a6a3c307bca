package books

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "token123" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Variables["query"] != "dune" {
			t.Fatalf("unexpected query variable: %v", req.Variables["query"])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"search":{"results":[{"id":"E1","title":"Dune","author":"Frank Herbert"}]}}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token123")
	hits, err := client.Search(context.Background(), "dune", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "E1" || hits[0].Title != "Dune" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestSearchGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"errors":[{"message":"rate limited"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token123")
	if _, err := client.Search(context.Background(), "dune", 5); err == nil {
		t.Fatal("expected error from GraphQL errors field")
	}
}

func TestSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad")
	if _, err := client.Search(context.Background(), "dune", 5); err == nil {
		t.Fatal("expected error from HTTP status")
	}
}

func TestPurchaseLink(t *testing.T) {
	got := PurchaseLink("The Left Hand of Darkness", "dungeon")
	want := "https://bookshop.org/search?keywords=The+Left+Hand+of+Darkness&affiliate=dungeon"
	if got != want {
		t.Fatalf("PurchaseLink = %q, want %q", got, want)
	}
}
