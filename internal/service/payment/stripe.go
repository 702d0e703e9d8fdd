package payment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kindredhq/kindred/internal/config"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/service"
	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeProvider struct {
	cfg                 *config.Config
	subscriptionService *service.SubscriptionService
}

func NewStripeProvider(cfg *config.Config, subscriptionService *service.SubscriptionService) *StripeProvider {
	stripe.Key = cfg.StripeSecretKey

	slog.Info("stripe provider initialized", "app_env", cfg.AppEnv)

	return &StripeProvider{
		cfg:                 cfg,
		subscriptionService: subscriptionService,
	}
}

func (s *StripeProvider) Name() string {
	return model.ProviderStripe
}

func (s *StripeProvider) CreateCheckoutURL(userID, planID, interval, customerEmail, customerName string) (string, error) {
	sub, err := s.subscriptionService.Subscription(userID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}

	priceID := s.stripePriceID(planID, interval)
	if priceID == "" {
		return "", fmt.Errorf("no price configured for plan: %s (%s)", planID, interval)
	}

	successURL := fmt.Sprintf("%s/billing?session_id={CHECKOUT_SESSION_ID}", s.cfg.AppURL)
	cancelURL := fmt.Sprintf("%s/billing", s.cfg.AppURL)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(customerEmail),
		Metadata: map[string]string{
			"user_id":         userID,
			"subscription_id": sub.ID,
			"plan_id":         planID,
		},
		AllowPromotionCodes: stripe.Bool(true),
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("stripe checkout created", "user_id", userID, "plan_id", planID, "session_id", sess.ID)
	return sess.URL, nil
}

func (s *StripeProvider) CustomerPortalURL(userID string) (string, error) {
	sub, err := s.subscriptionService.Subscription(userID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}

	if sub.ProviderCustomerID == nil || *sub.ProviderCustomerID == "" {
		return "", fmt.Errorf("no customer portal available for free subscriptions")
	}

	returnURL := fmt.Sprintf("%s/billing", s.cfg.AppURL)

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*sub.ProviderCustomerID),
		ReturnURL: stripe.String(returnURL),
	}

	portalSession, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer portal session: %w", err)
	}

	slog.Info("stripe customer portal session created", "user_id", userID)
	return portalSession.URL, nil
}

func (s *StripeProvider) HandleWebhook(payload []byte, headers http.Header) error {
	signature := headers.Get("Stripe-Signature")

	// Stripe API versions are backwards compatible, so a version mismatch
	// between SDK and dashboard is safe to ignore.
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	slog.Info("stripe webhook received", "event_type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutSessionCompleted(event.Data.Raw)
	case "customer.subscription.created":
		return s.handleSubscriptionCreated(event.Data.Raw)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(event.Data.Raw)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(event.Data.Raw)
	case "invoice.payment_succeeded":
		return s.handleInvoicePaymentSucceeded(event.Data.Raw)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(event.Data.Raw)
	default:
		slog.Warn("stripe webhook unknown event type", "event_type", event.Type)
		return nil
	}
}

func (s *StripeProvider) handleCheckoutSessionCompleted(data json.RawMessage) error {
	var checkoutSession struct {
		ID         string            `json:"id"`
		CustomerID string            `json:"customer"`
		Metadata   map[string]string `json:"metadata"`
	}

	if err := json.Unmarshal(data, &checkoutSession); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	userID := checkoutSession.Metadata["user_id"]
	if userID == "" {
		slog.Warn("stripe checkout session has no user_id in metadata, skipping")
		return nil
	}

	sub, err := s.subscriptionService.Subscription(userID)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}

	sub.Provider = model.ProviderStripe
	sub.ProviderCustomerID = &checkoutSession.CustomerID

	if err := s.subscriptionService.UpdateSubscription(sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("stripe checkout completed", "user_id", userID, "customer_id", checkoutSession.CustomerID)
	return nil
}

type stripeSubscriptionEvent struct {
	ID                string `json:"id"`
	CustomerID        string `json:"customer"`
	Status            string `json:"status"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID         string `json:"id"`
				UnitAmount int64  `json:"unit_amount"`
				Currency   string `json:"currency"`
				Recurring  struct {
					Interval string `json:"interval"`
				} `json:"recurring"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (s *StripeProvider) handleSubscriptionCreated(data json.RawMessage) error {
	var subscription stripeSubscriptionEvent
	if err := json.Unmarshal(data, &subscription); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	sub, err := s.subscriptionService.ByProviderCustomerID(subscription.CustomerID)
	if err != nil {
		slog.Warn("stripe subscription has unknown customer, skipping", "customer_id", subscription.CustomerID)
		return nil
	}

	if len(subscription.Items.Data) == 0 {
		return fmt.Errorf("subscription has no items")
	}

	s.applySubscriptionEvent(sub, &subscription)
	sub.ProviderSubscriptionID = &subscription.ID

	if err := s.subscriptionService.UpdateSubscription(sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("stripe subscription created", "user_id", sub.UserID, "plan_id", sub.PlanID, "stripe_sub_id", subscription.ID)
	return nil
}

func (s *StripeProvider) handleSubscriptionUpdated(data json.RawMessage) error {
	var subscription stripeSubscriptionEvent
	if err := json.Unmarshal(data, &subscription); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	sub, err := s.subscriptionService.ByProviderSubscriptionID(subscription.ID)
	if err != nil {
		slog.Warn("stripe subscription not found, skipping update", "stripe_sub_id", subscription.ID)
		return nil
	}

	s.applySubscriptionEvent(sub, &subscription)

	if subscription.CancelAtPeriodEnd {
		sub.Status = model.SubscriptionStatusCancelled
	}

	if err := s.subscriptionService.UpdateSubscription(sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("stripe subscription updated", "user_id", sub.UserID, "stripe_sub_id", subscription.ID, "status", sub.Status)
	return nil
}

// applySubscriptionEvent copies plan, price, interval, status, and period
// end from the event onto the local subscription row.
func (s *StripeProvider) applySubscriptionEvent(sub *model.Subscription, event *stripeSubscriptionEvent) {
	if len(event.Items.Data) > 0 {
		price := event.Items.Data[0].Price

		if planID := s.localPlanID(price.ID); planID != "" {
			sub.PlanID = planID
		}

		amount := int(price.UnitAmount)
		sub.Amount = &amount
		sub.Currency = price.Currency

		interval := mapStripeInterval(price.Recurring.Interval)
		sub.Interval = &interval
	}

	sub.Provider = model.ProviderStripe
	sub.Status = mapStripeStatus(event.Status)

	periodEnd := time.Unix(event.CurrentPeriodEnd, 0)
	sub.CurrentPeriodEnd = &periodEnd
}

func (s *StripeProvider) handleSubscriptionDeleted(data json.RawMessage) error {
	var subscription struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(data, &subscription); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	sub, err := s.subscriptionService.ByProviderSubscriptionID(subscription.ID)
	if err != nil {
		slog.Warn("stripe subscription not found, ignoring deletion", "stripe_sub_id", subscription.ID)
		return nil
	}

	if sub.PlanID == model.SubscriptionPlanFree {
		slog.Warn("stripe subscription already free, ignoring deletion")
		return nil
	}

	if err := s.subscriptionService.DowngradeToFree(sub); err != nil {
		return fmt.Errorf("failed to downgrade subscription: %w", err)
	}

	slog.Info("stripe subscription deleted, downgraded to free", "user_id", sub.UserID, "stripe_sub_id", subscription.ID)
	return nil
}

func (s *StripeProvider) handleInvoicePaymentSucceeded(data json.RawMessage) error {
	var invoice struct {
		SubscriptionID string `json:"subscription"`
	}

	if err := json.Unmarshal(data, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}

	if invoice.SubscriptionID == "" {
		// One-time payment, not subscription-related
		return nil
	}

	sub, err := s.subscriptionService.ByProviderSubscriptionID(invoice.SubscriptionID)
	if err != nil {
		slog.Warn("stripe invoice has unknown subscription, skipping", "subscription_id", invoice.SubscriptionID)
		return nil
	}

	if sub.Status != model.SubscriptionStatusActive {
		sub.Status = model.SubscriptionStatusActive
		if err := s.subscriptionService.UpdateSubscription(sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
	}

	slog.Info("stripe invoice payment succeeded", "user_id", sub.UserID, "subscription_id", invoice.SubscriptionID)
	return nil
}

func (s *StripeProvider) handleInvoicePaymentFailed(data json.RawMessage) error {
	var invoice struct {
		SubscriptionID string `json:"subscription"`
	}

	if err := json.Unmarshal(data, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}

	if invoice.SubscriptionID == "" {
		return nil
	}

	sub, err := s.subscriptionService.ByProviderSubscriptionID(invoice.SubscriptionID)
	if err != nil {
		slog.Warn("stripe invoice has unknown subscription, skipping", "subscription_id", invoice.SubscriptionID)
		return nil
	}

	// Stripe retries on its own and eventually sends subscription.deleted,
	// so no local state change here.
	slog.Warn("stripe invoice payment failed", "user_id", sub.UserID, "subscription_id", invoice.SubscriptionID)
	return nil
}

func (s *StripeProvider) stripePriceID(planID, interval string) string {
	if planID != model.SubscriptionPlanPremium {
		return ""
	}
	switch interval {
	case model.SubscriptionIntervalMonthly:
		return s.cfg.StripePriceIDPremiumMonthly
	case model.SubscriptionIntervalYearly:
		return s.cfg.StripePriceIDPremiumYearly
	default:
		return ""
	}
}

func (s *StripeProvider) localPlanID(priceID string) string {
	switch priceID {
	case s.cfg.StripePriceIDPremiumMonthly, s.cfg.StripePriceIDPremiumYearly:
		return model.SubscriptionPlanPremium
	default:
		return ""
	}
}

func mapStripeStatus(status string) string {
	switch status {
	case "active", "trialing":
		return model.SubscriptionStatusActive
	case "canceled", "incomplete_expired", "unpaid":
		return model.SubscriptionStatusCancelled
	default:
		return status
	}
}

func mapStripeInterval(interval string) string {
	switch interval {
	case "month":
		return model.SubscriptionIntervalMonthly
	case "year":
		return model.SubscriptionIntervalYearly
	default:
		return interval
	}
}
