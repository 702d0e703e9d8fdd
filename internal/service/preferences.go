package service

import (
	"errors"
	"fmt"

	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
)

type PreferencesService struct {
	repo repository.PreferencesRepository
}

func NewPreferencesService(repo repository.PreferencesRepository) *PreferencesService {
	return &PreferencesService{repo: repo}
}

// ByUserID returns stored preferences, or the defaults when the user has
// never saved any.
func (s *PreferencesService) ByUserID(userID string) (*model.Preferences, error) {
	prefs, err := s.repo.ByUserID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrPreferencesNotFound) {
			return model.DefaultPreferences(userID), nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return prefs, nil
}

func (s *PreferencesService) Save(prefs *model.Preferences) error {
	if prefs.Timezone == "" {
		prefs.Timezone = "UTC"
	}

	if err := s.repo.Save(prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	return nil
}
