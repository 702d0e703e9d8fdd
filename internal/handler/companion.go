package handler

import (
	"errors"
	"net/http"

	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
	"github.com/kindredhq/kindred/internal/service"
)

type CompanionHandler struct {
	companionService *service.CompanionService
}

func NewCompanionHandler(companionService *service.CompanionService) *CompanionHandler {
	return &CompanionHandler{companionService: companionService}
}

func (h *CompanionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	companion, err := h.companionService.ByUserID(user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanionNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"configured": false})
			return
		}
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, companionResponse(companion))
}

// Update merges the posted fields over the existing companion config.
func (h *CompanionHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Name      *string `json:"name"`
		Tone      *string `json:"tone"`
		Expertise *string `json:"expertise"`
		Goal      *string `json:"goal"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	companion, err := h.companionService.Ensure(user.ID, service.CompanionUpdate{
		Name:      req.Name,
		Tone:      req.Tone,
		Expertise: req.Expertise,
		Goal:      req.Goal,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, companionResponse(companion))
}

// Reset deletes the companion config; chat falls back to the default persona.
func (h *CompanionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.companionService.Reset(user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func companionResponse(c *model.Companion) map[string]any {
	return map[string]any{
		"configured": true,
		"name":       c.Name,
		"tone":       c.Tone,
		"expertise":  c.Expertise,
		"goal":       c.Goal,
	}
}
