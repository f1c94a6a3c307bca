package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dungeonbooks/marty/internal/delivery"
)

func TestDeliver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pushedMessages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Chatra.Simple pub:priv" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if payload["clientId"] != "client42" || payload["text"] != "hey" {
			t.Fatalf("unexpected payload: %v", payload)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "pub:priv")
	if err := client.Deliver(context.Background(), "client42", "hey"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
}

func TestDeliverRejectionIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "pub:priv")
	err := client.Deliver(context.Background(), "client42", "hey")
	var te *delivery.TransportError
	if !errors.As(err, &te) || te.Kind != delivery.FailureFatal {
		t.Fatalf("expected fatal transport error, got %v", err)
	}
}
