package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
)

type SubscriptionService struct {
	repo        repository.SubscriptionRepository
	profileRepo repository.ProfileRepository
}

func NewSubscriptionService(repo repository.SubscriptionRepository, profileRepo repository.ProfileRepository) *SubscriptionService {
	return &SubscriptionService{repo: repo, profileRepo: profileRepo}
}

func (s *SubscriptionService) CreateFreeSubscription(userID string) error {
	now := time.Now()
	subscription := &model.Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlanID:    model.SubscriptionPlanFree,
		Status:    model.SubscriptionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(subscription); err != nil {
		return fmt.Errorf("failed to create free subscription: %w", err)
	}

	return nil
}

func (s *SubscriptionService) Subscription(userID string) (*model.Subscription, error) {
	sub, err := s.repo.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

func (s *SubscriptionService) ByProviderSubscriptionID(providerSubID string) (*model.Subscription, error) {
	sub, err := s.repo.ByProviderSubscriptionID(providerSubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription by provider ID: %w", err)
	}

	return sub, nil
}

func (s *SubscriptionService) ByProviderCustomerID(providerCustomerID string) (*model.Subscription, error) {
	sub, err := s.repo.ByProviderCustomerID(providerCustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription by customer ID: %w", err)
	}

	return sub, nil
}

// UpdateSubscription persists the subscription and keeps the denormalized
// premium flag on the profile in sync. The subscription row is the source of
// truth; the profile flag exists so the chat path reads one row.
func (s *SubscriptionService) UpdateSubscription(sub *model.Subscription) error {
	sub.UpdatedAt = time.Now()

	if err := s.repo.Update(sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if err := s.profileRepo.SetPremium(sub.UserID, sub.IsPaid()); err != nil {
		slog.Warn("failed to sync premium flag", "error", err, "user_id", sub.UserID)
	}

	return nil
}

func (s *SubscriptionService) DowngradeToFree(sub *model.Subscription) error {
	sub.PlanID = model.SubscriptionPlanFree
	sub.Status = model.SubscriptionStatusActive
	sub.ProviderSubscriptionID = nil
	sub.CurrentPeriodEnd = nil
	sub.Amount = nil
	sub.Currency = ""
	sub.Interval = nil

	return s.UpdateSubscription(sub)
}
