package service

import (
	"errors"
	"fmt"

	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
)

type ConversationService struct {
	repo          repository.ConversationRepository
	companionRepo repository.CompanionRepository
}

func NewConversationService(repo repository.ConversationRepository, companionRepo repository.CompanionRepository) *ConversationService {
	return &ConversationService{repo: repo, companionRepo: companionRepo}
}

// Ensure returns the user's latest active conversation with their companion,
// creating one when none exists.
func (s *ConversationService) Ensure(userID string) (*model.Conversation, error) {
	var companionID *string
	if companion, err := s.companionRepo.ByUserID(userID); err == nil {
		companionID = &companion.ID
	}

	conversation, err := s.repo.LatestActive(userID, companionID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, repository.ErrConversationNotFound) {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	conversation = &model.Conversation{
		UserID:      userID,
		CompanionID: companionID,
		Title:       "Chat",
	}
	if err := s.repo.Create(conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return conversation, nil
}

func (s *ConversationService) ByID(id, userID string) (*model.Conversation, error) {
	return s.repo.ByID(id, userID)
}
