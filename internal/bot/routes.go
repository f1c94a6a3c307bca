package bot

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/webhook/sms", h.HandleSMSWebhook)
	r.Post("/webhook/chat", h.HandleChatWebhook)
}
