package payment

import "net/http"

// Provider is the surface the billing handler needs from a payment backend.
type Provider interface {
	// CreateCheckoutURL creates a checkout session and returns its URL.
	CreateCheckoutURL(userID, planID, interval, customerEmail, customerName string) (string, error)

	// CustomerPortalURL creates a customer portal session and returns its URL.
	CustomerPortalURL(userID string) (string, error)

	// HandleWebhook processes webhook events from the payment provider.
	HandleWebhook(payload []byte, headers http.Header) error

	// Name returns the provider name ("polar" or "stripe").
	Name() string
}
