package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
	"github.com/kindredhq/kindred/internal/validation"
)

var (
	ErrNicknameRequired = errors.New("nickname is required")
	ErrGoalRequired     = errors.New("goal is required")
)

type ProfileService struct {
	repo             repository.ProfileRepository
	userRepository   repository.UserRepository
	companionService *CompanionService
	emailService     *EmailService
}

func NewProfileService(
	repo repository.ProfileRepository,
	userRepository repository.UserRepository,
	companionService *CompanionService,
	emailService *EmailService,
) *ProfileService {
	return &ProfileService{
		repo:             repo,
		userRepository:   userRepository,
		companionService: companionService,
		emailService:     emailService,
	}
}

func (s *ProfileService) ByUserID(userID string) (*model.Profile, error) {
	return s.repo.ByUserID(userID)
}

// CompleteOnboarding stores the nickname, configures the companion from the
// onboarding answers, and marks the profile done. The companion gets the
// nickname as its name.
func (s *ProfileService) CompleteOnboarding(userID, nickname, tone, expertise, goal string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return ErrNicknameRequired
	}
	if err := validation.ValidateName(nickname); err != nil {
		return err
	}

	goal = strings.TrimSpace(goal)
	if goal == "" {
		return ErrGoalRequired
	}

	if err := s.repo.UpdateNickname(userID, nickname); err != nil {
		return fmt.Errorf("failed to update nickname: %w", err)
	}

	_, err := s.companionService.Ensure(userID, CompanionUpdate{
		Name:      &nickname,
		Tone:      &tone,
		Expertise: &expertise,
		Goal:      &goal,
	})
	if err != nil {
		return fmt.Errorf("failed to configure companion: %w", err)
	}

	if err := s.repo.SetOnboardingComplete(userID); err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
	}

	if user, err := s.userRepository.ByID(userID); err == nil {
		if err := s.emailService.SendWelcomeEmail(user.Email, nickname); err != nil {
			slog.Warn("failed to send welcome email", "error", err, "email", user.Email)
		}
	}

	slog.Info("onboarding completed", "user_id", userID, "nickname", nickname)
	return nil
}

func (s *ProfileService) UpdateNickname(userID, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if err := validation.ValidateName(nickname); err != nil {
		return err
	}

	if err := s.repo.UpdateNickname(userID, nickname); err != nil {
		return fmt.Errorf("failed to update nickname: %w", err)
	}

	return nil
}
