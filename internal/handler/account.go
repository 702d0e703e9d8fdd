package handler

import (
	"errors"
	"net/http"

	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/service"
)

type AccountHandler struct {
	userService    *service.UserService
	profileService *service.ProfileService
	authService    *service.AuthService
}

func NewAccountHandler(
	userService *service.UserService,
	profileService *service.ProfileService,
	authService *service.AuthService,
) *AccountHandler {
	return &AccountHandler{
		userService:    userService,
		profileService: profileService,
		authService:    authService,
	}
}

// CompleteOnboarding stores the nickname and companion setup from the
// onboarding flow.
func (h *AccountHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Nickname  string `json:"nickname"`
		Tone      string `json:"tone"`
		Expertise string `json:"expertise"`
		Goal      string `json:"goal"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.profileService.CompleteOnboarding(user.ID, req.Nickname, req.Tone, req.Expertise, req.Goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AccountHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.profileService.UpdateNickname(user.ID, req.Nickname); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.userService.UpdatePassword(user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCurrentPassword) {
			writeError(w, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Delete removes the account and all data it owns. Refused while a paid
// subscription is still active so the user cancels billing first.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.userService.DeleteAccount(user.ID); err != nil {
		if errors.Is(err, service.ErrActiveSubscription) {
			writeError(w, http.StatusConflict, "please cancel your subscription before deleting your account")
			return
		}
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	h.authService.ClearJWTCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
