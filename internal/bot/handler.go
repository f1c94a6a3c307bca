package bot

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dungeonbooks/marty/internal/sms"
)

// sizeLimit caps webhook bodies. Inbound texts are short; anything
// bigger is not a customer message.
const sizeLimit = 64 << 10

type Handler struct {
	svc         *Service
	smsSecret   string
	chatSecret  string
	turnTimeout time.Duration
}

func NewHandler(svc *Service, smsSecret, chatSecret string, turnTimeout time.Duration) *Handler {
	return &Handler{
		svc:         svc,
		smsSecret:   smsSecret,
		chatSecret:  chatSecret,
		turnTimeout: turnTimeout,
	}
}

// HandleSMSWebhook accepts an inbound SMS callback. The raw body is
// verified against the X-Sinch-Signature header before parsing. The
// handler ACKs immediately and runs the turn in the background so the
// provider never waits on the model.
func (h *Handler) HandleSMSWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, sizeLimit))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	if h.smsSecret != "" {
		sig := r.Header.Get("X-Sinch-Signature")
		if !sms.VerifySignature(body, sig, h.smsSecret) {
			log.Printf("[webhook] sms signature rejected")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var payload struct {
		ID   string `json:"id"`
		From struct {
			Endpoint string `json:"endpoint"`
		} `json:"from"`
		Message    string `json:"message"`
		ReceivedAt string `json:"received_at"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.From.Endpoint == "" || payload.Message == "" {
		http.Error(w, "missing sender or message", http.StatusBadRequest)
		return
	}

	h.process(ChannelSMS, payload.From.Endpoint, payload.Message)
	w.WriteHeader(http.StatusOK)
}

// HandleChatWebhook accepts an inbound chat message. Chat callbacks
// carry a shared secret header instead of a body signature.
func (h *Handler) HandleChatWebhook(w http.ResponseWriter, r *http.Request) {
	if h.chatSecret != "" && r.Header.Get("X-Webhook-Secret") != h.chatSecret {
		log.Printf("[webhook] chat secret rejected")
		http.Error(w, "invalid secret", http.StatusUnauthorized)
		return
	}

	var payload struct {
		ClientID string `json:"client_id"`
		Text     string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, sizeLimit)).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.ClientID == "" || payload.Text == "" {
		http.Error(w, "missing client_id or text", http.StatusBadRequest)
		return
	}

	h.process(ChannelChat, payload.ClientID, payload.Text)
	w.WriteHeader(http.StatusOK)
}

// process runs one turn detached from the request. The webhook context
// dies with the ACK, so the turn gets its own deadline.
func (h *Handler) process(channel, identity, text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.turnTimeout)
		defer cancel()
		if err := h.svc.HandleIncoming(ctx, channel, identity, text); err != nil {
			log.Printf("[webhook] %s turn for %s: %v", channel, identity, err)
		}
	}()
}
