package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/service"
)

const supportMessageMaxLen = 5000

type SupportHandler struct {
	emailService *service.EmailService
}

func NewSupportHandler(emailService *service.EmailService) *SupportHandler {
	return &SupportHandler{emailService: emailService}
}

// Submit forwards a support request to the support inbox. The website field
// is a honeypot: bots fill it, humans never see it, and a tripped honeypot
// gets a success response with no email sent.
func (h *SupportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Topic   string `json:"topic"`
		Message string `json:"message"`
		Website string `json:"website"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Website != "" {
		slog.Info("support honeypot tripped", "user_id", user.ID)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	req.Message = strings.TrimSpace(req.Message)
	if req.Topic == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "topic and message are required")
		return
	}
	if len(req.Message) > supportMessageMaxLen {
		writeError(w, http.StatusBadRequest, "message is too long")
		return
	}

	if err := h.emailService.SendSupportEmail(user.Email, req.Topic, req.Message); err != nil {
		slog.Error("failed to send support email", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to send your message, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
