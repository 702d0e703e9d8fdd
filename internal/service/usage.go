package service

import (
	"fmt"
	"time"

	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
)

// UsageService tracks how many messages a user has sent today. Days roll
// over at midnight UTC.
type UsageService struct {
	repo    repository.UsageRepository
	freeCap int
}

func NewUsageService(repo repository.UsageRepository, freeCap int) *UsageService {
	return &UsageService{repo: repo, freeCap: freeCap}
}

// UsedToday returns today's count, 0 when the user hasn't chatted yet.
func (s *UsageService) UsedToday(userID string) (int, error) {
	count, err := s.repo.CountForDay(userID, model.UsageDay(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to read usage: %w", err)
	}
	return count, nil
}

// Remaining reports how many free messages the user has left today. Premium
// users are uncapped; callers should check that first.
func (s *UsageService) Remaining(userID string) (int, error) {
	used, err := s.UsedToday(userID)
	if err != nil {
		return 0, err
	}

	remaining := s.freeCap - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// AtCap reports whether the user has exhausted today's free allowance.
func (s *UsageService) AtCap(used int) bool {
	return used >= s.freeCap
}

// Record adds one message to today's ledger.
func (s *UsageService) Record(userID string) error {
	if err := s.repo.Increment(userID, model.UsageDay(time.Now())); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

func (s *UsageService) FreeCap() int {
	return s.freeCap
}
