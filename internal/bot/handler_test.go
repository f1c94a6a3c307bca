package bot

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungeonbooks/marty/internal/sms"
)

const webhookSecret = "test-secret"

func newTestHandler(t *testing.T) (*Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewHandler(f.svc, webhookSecret, webhookSecret, 5*time.Second), f
}

func smsRequest(body string, sign bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/sms", strings.NewReader(body))
	if sign {
		req.Header.Set("X-Sinch-Signature", sms.Sign([]byte(body), webhookSecret))
	}
	return req
}

func TestSMSWebhookAccepted(t *testing.T) {
	h, f := newTestHandler(t)
	body := `{"id":"msg-1","from":{"endpoint":"+15550001"},"message":"hey marty"}`

	rec := httptest.NewRecorder()
	h.HandleSMSWebhook(rec, smsRequest(body, true))

	assert.Equal(t, http.StatusOK, rec.Code)

	// The turn runs in the background after the ACK.
	require.Eventually(t, func() bool {
		f.transport.mu.Lock()
		defer f.transport.mu.Unlock()
		return len(f.transport.sent) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSMSWebhookBadSignature(t *testing.T) {
	h, f := newTestHandler(t)
	body := `{"id":"msg-1","from":{"endpoint":"+15550001"},"message":"hey"}`

	req := smsRequest(body, false)
	req.Header.Set("X-Sinch-Signature", "bogus")
	rec := httptest.NewRecorder()
	h.HandleSMSWebhook(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.transport.sent)
}

func TestSMSWebhookBadJSON(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.HandleSMSWebhook(rec, smsRequest("{not json", true))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSMSWebhookMissingFields(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.HandleSMSWebhook(rec, smsRequest(`{"id":"msg-1","message":"hey"}`, true))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatWebhookSecret(t *testing.T) {
	h, _ := newTestHandler(t)
	body := `{"client_id":"client-9","text":"hello"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleChatWebhook(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhook/chat", strings.NewReader(body))
	req.Header.Set("X-Webhook-Secret", webhookSecret)
	rec = httptest.NewRecorder()
	h.HandleChatWebhook(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
