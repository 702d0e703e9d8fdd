package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
)

const defaultCompanionName = "Companion"

// CompanionUpdate carries the optional fields of a companion configure
// request. Nil fields keep the existing value.
type CompanionUpdate struct {
	Name      *string
	Tone      *string
	Expertise *string
	Goal      *string
}

type CompanionService struct {
	repo repository.CompanionRepository
}

func NewCompanionService(repo repository.CompanionRepository) *CompanionService {
	return &CompanionService{repo: repo}
}

func (s *CompanionService) ByUserID(userID string) (*model.Companion, error) {
	return s.repo.ByUserID(userID)
}

// Ensure merges the update over the user's existing companion (or defaults
// when none exists), rebuilds the system prompt, and upserts. Invalid tone
// or expertise values fall back to defaults instead of failing.
func (s *CompanionService) Ensure(userID string, update CompanionUpdate) (*model.Companion, error) {
	existing, err := s.repo.ByUserID(userID)
	if err != nil && !errors.Is(err, repository.ErrCompanionNotFound) {
		return nil, fmt.Errorf("failed to get companion: %w", err)
	}

	companion := &model.Companion{
		UserID:    userID,
		Name:      defaultCompanionName,
		Tone:      model.ToneFriendly,
		Expertise: model.ExpertiseGeneralist,
	}
	if existing != nil {
		companion = existing
	}

	if update.Name != nil {
		companion.Name = *update.Name
	}
	if update.Tone != nil {
		companion.Tone = *update.Tone
	}
	if update.Expertise != nil {
		companion.Expertise = *update.Expertise
	}
	if update.Goal != nil {
		companion.Goal = update.Goal
	}

	companion.Name = strings.TrimSpace(companion.Name)
	if companion.Name == "" {
		companion.Name = defaultCompanionName
	}
	if !model.ValidTone(companion.Tone) {
		companion.Tone = model.ToneFriendly
	}
	if !model.ValidExpertise(companion.Expertise) {
		companion.Expertise = model.ExpertiseGeneralist
	}

	companion.SystemPrompt = model.BuildSystemPrompt(companion.Name, companion.Tone, companion.Expertise, companion.Goal)

	if err := s.repo.Upsert(companion); err != nil {
		return nil, fmt.Errorf("failed to upsert companion: %w", err)
	}

	return companion, nil
}

// Reset removes the user's companion so chat falls back to the default
// persona.
func (s *CompanionService) Reset(userID string) error {
	err := s.repo.DeleteByUserID(userID)
	if err != nil && !errors.Is(err, repository.ErrCompanionNotFound) {
		return fmt.Errorf("failed to reset companion: %w", err)
	}
	return nil
}
