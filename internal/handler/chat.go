package handler

import (
	"errors"
	"net/http"

	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/service"
	"github.com/kindredhq/kindred/internal/validation"
)

type ChatHandler struct {
	chatService         *service.ChatService
	conversationService *service.ConversationService
}

func NewChatHandler(chatService *service.ChatService, conversationService *service.ConversationService) *ChatHandler {
	return &ChatHandler{
		chatService:         chatService,
		conversationService: conversationService,
	}
}

// Send runs one chat turn for the logged-in user.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validation.ValidateChatMessage(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conversationID := validation.NormalizeConversationID(req.ConversationID)

	result, err := h.chatService.Send(r.Context(), user.ID, req.Message, conversationID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageRequired):
			writeError(w, http.StatusBadRequest, "message is required")
		case errors.Is(err, service.ErrQuotaExceeded):
			writeError(w, http.StatusPaymentRequired, "Daily free limit reached. Upgrade to continue.")
		case errors.Is(err, service.ErrContentBlocked):
			writeError(w, http.StatusForbidden, "This message can't be sent. Please rephrase.")
		case errors.Is(err, service.ErrUpstreamUnavailable):
			writeError(w, http.StatusBadGateway, "AI is momentarily unavailable. Please try again.")
		default:
			writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		}
		return
	}

	resp := map[string]any{"text": result.Text}
	if result.Remaining != nil {
		resp["remaining"] = *result.Remaining
	}
	if result.Safe {
		resp["safe"] = true
	}

	writeJSON(w, http.StatusOK, resp)
}

// EnsureConversation returns the active conversation, creating one if needed.
func (h *ChatHandler) EnsureConversation(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	conversation, err := h.conversationService.Ensure(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           conversation.ID,
		"title":        conversation.Title,
		"companion_id": conversation.CompanionID,
		"created_at":   conversation.CreatedAt,
	})
}
