package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
	"github.com/kindredhq/kindred/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrActiveSubscription     = errors.New("cannot delete account with active subscription")
)

type UserService struct {
	userRepository      repository.UserRepository
	profileRepository   repository.ProfileRepository
	emailService        *EmailService
	subscriptionService *SubscriptionService
}

func NewUserService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	emailService *EmailService,
	subscriptionService *SubscriptionService,
) *UserService {
	return &UserService{
		userRepository:      userRepository,
		profileRepository:   profileRepository,
		emailService:        emailService,
		subscriptionService: subscriptionService,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

func (s *UserService) UpdatePassword(userID, currentPassword, newPassword string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return fmt.Errorf("passwordless accounts cannot update password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCurrentPassword
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	hashStr := string(hashedPassword)
	user.PasswordHash = &hashStr

	if err := s.userRepository.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// DeleteAccount removes the user and everything they own. Blocked while a
// paid subscription is active or its period is still running, so billing
// stays consistent with the provider.
func (s *UserService) DeleteAccount(userID string) error {
	subscription, err := s.subscriptionService.Subscription(userID)
	if err != nil {
		return fmt.Errorf("failed to check subscription: %w", err)
	}

	if subscription.PlanID != model.SubscriptionPlanFree &&
		(subscription.Status == model.SubscriptionStatusActive ||
			(subscription.CurrentPeriodEnd != nil && subscription.CurrentPeriodEnd.After(time.Now()))) {
		return ErrActiveSubscription
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	name := ""
	if profile, err := s.profileRepository.ByUserID(userID); err == nil {
		name = profile.Nickname
	}

	if err := s.emailService.SendAccountDeletedEmail(user.Email, name); err != nil {
		slog.Warn("failed to send account deleted email", "user_id", userID, "email", user.Email, "error", err)
	}

	// Foreign key CASCADE removes profiles, tokens, subscriptions,
	// companions, conversations, messages, memories, daily_usage, and
	// preferences with the user row.
	if err := s.userRepository.Delete(userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}
