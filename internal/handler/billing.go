package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/service/payment"
)

type BillingHandler struct {
	provider payment.Provider
}

func NewBillingHandler(provider payment.Provider) *BillingHandler {
	return &BillingHandler{provider: provider}
}

// CreateCheckout starts a premium checkout and returns the provider URL for
// the client to redirect to.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())

	var req struct {
		Interval string `json:"interval"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Interval != model.SubscriptionIntervalYearly {
		req.Interval = model.SubscriptionIntervalMonthly
	}

	name := ""
	if profile != nil {
		name = profile.Nickname
	}

	url, err := h.provider.CreateCheckoutURL(user.ID, model.SubscriptionPlanPremium, req.Interval, user.Email, name)
	if err != nil {
		slog.Error("failed to create checkout", "error", err, "user_id", user.ID, "provider", h.provider.Name())
		writeError(w, http.StatusInternalServerError, "failed to start checkout, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// CustomerPortal returns the provider's billing portal URL for the user.
func (h *BillingHandler) CustomerPortal(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	url, err := h.provider.CustomerPortalURL(user.ID)
	if err != nil {
		slog.Error("failed to create portal session", "error", err, "user_id", user.ID, "provider", h.provider.Name())
		writeError(w, http.StatusInternalServerError, "failed to open billing portal, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook receives subscription events from the payment provider. Signature
// verification happens inside the provider.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	if err := h.provider.HandleWebhook(payload, r.Header); err != nil {
		slog.Error("webhook processing failed", "error", err, "provider", h.provider.Name())
		writeError(w, http.StatusBadRequest, "webhook processing failed")
		return
	}

	w.WriteHeader(http.StatusOK)
}
