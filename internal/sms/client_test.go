package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dungeonbooks/marty/internal/delivery"
)

func TestDeliverSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xms/v1/plan1/batches" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if payload["from"] != "+15551000" || payload["body"] != "hi there" {
			t.Fatalf("unexpected payload: %v", payload)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "plan1", "tok", "+15551000")
	if err := client.Deliver(context.Background(), "+15550001", "hi there"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
}

func TestDeliverClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		kind   delivery.FailureKind
	}{
		{"server error is transient", http.StatusInternalServerError, delivery.FailureTransient},
		{"throttling is transient", http.StatusTooManyRequests, delivery.FailureTransient},
		{"gateway timeout is transient", http.StatusRequestTimeout, delivery.FailureTransient},
		{"bad recipient is fatal", http.StatusBadRequest, delivery.FailureFatal},
		{"auth failure is fatal", http.StatusUnauthorized, delivery.FailureFatal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(c.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, "plan1", "tok", "+15551000")
			err := client.Deliver(context.Background(), "+15550001", "hi")
			if err == nil {
				t.Fatal("expected error")
			}
			var te *delivery.TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransportError, got %T", err)
			}
			if te.Kind != c.kind {
				t.Fatalf("kind = %v, want %v", te.Kind, c.kind)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"message":"hello"}`)
	sig := Sign(body, "secret")

	if !VerifySignature(body, sig, "secret") {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature(body, sig, "other-secret") {
		t.Fatal("signature under wrong secret accepted")
	}
	if VerifySignature([]byte(`{"message":"tampered"}`), sig, "secret") {
		t.Fatal("tampered body accepted")
	}
	if VerifySignature(body, "", "secret") {
		t.Fatal("empty signature accepted")
	}
}
