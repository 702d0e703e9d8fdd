package service

import (
	"context"
	"errors"
	"sync"

	"github.com/kindredhq/kindred/internal/llm"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
	"github.com/pgvector/pgvector-go"
)

// Fakes are mutex-guarded because memory capture runs on a goroutine behind
// the chat service.

type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

type fakeModerator struct {
	mu      sync.Mutex
	results []llm.ModerationResult
	err     error
	calls   int
}

func (f *fakeModerator) Moderate(ctx context.Context, text string) (*llm.ModerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	result := f.results[idx]
	return &result, nil
}

type fakeProfileRepo struct {
	profile *model.Profile
}

func (f *fakeProfileRepo) ByUserID(userID string) (*model.Profile, error) {
	if f.profile == nil {
		return nil, repository.ErrProfileNotFound
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) Create(profile *model.Profile) error          { return nil }
func (f *fakeProfileRepo) UpdateNickname(userID, nickname string) error { return nil }
func (f *fakeProfileRepo) SetOnboardingComplete(userID string) error    { return nil }
func (f *fakeProfileRepo) SetPremium(userID string, premium bool) error { return nil }

type fakeCompanionRepo struct {
	companion *model.Companion
	upserted  *model.Companion
	deleted   bool
}

func (f *fakeCompanionRepo) ByUserID(userID string) (*model.Companion, error) {
	if f.companion == nil {
		return nil, repository.ErrCompanionNotFound
	}
	return f.companion, nil
}

func (f *fakeCompanionRepo) Upsert(companion *model.Companion) error {
	f.upserted = companion
	return nil
}

func (f *fakeCompanionRepo) DeleteByUserID(userID string) error {
	f.deleted = true
	return nil
}

type fakeConversationRepo struct {
	conversation *model.Conversation
	touched      []string
	created      *model.Conversation
}

func (f *fakeConversationRepo) Create(conversation *model.Conversation) error {
	conversation.ID = "conv-new"
	f.created = conversation
	return nil
}

func (f *fakeConversationRepo) ByID(id, userID string) (*model.Conversation, error) {
	if f.conversation == nil || f.conversation.ID != id {
		return nil, repository.ErrConversationNotFound
	}
	return f.conversation, nil
}

func (f *fakeConversationRepo) LatestActive(userID string, companionID *string) (*model.Conversation, error) {
	if f.conversation == nil {
		return nil, repository.ErrConversationNotFound
	}
	return f.conversation, nil
}

func (f *fakeConversationRepo) Touch(id string) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeConversationRepo) DeleteByUserID(userID string) error { return nil }

type fakeMessageRepo struct {
	recent  []*model.Message
	batches [][]*model.Message
}

func (f *fakeMessageRepo) CreateBatch(messages []*model.Message) error {
	f.batches = append(f.batches, messages)
	return nil
}

func (f *fakeMessageRepo) RecentByUser(userID string, limit int) ([]*model.Message, error) {
	return f.recent, nil
}

func (f *fakeMessageRepo) RecentByConversation(conversationID, userID string, limit int) ([]*model.Message, error) {
	return f.recent, nil
}

func (f *fakeMessageRepo) CountByUser(userID string) (int, error) { return len(f.recent), nil }
func (f *fakeMessageRepo) DeleteByUserID(userID string) error     { return nil }

type fakeMemoryRepo struct {
	mu       sync.Mutex
	inserted []*model.Memory
	minimal  []*model.Memory
	matched  []*model.Memory
	recent   []*model.Memory

	insertErr error
	matchErr  error
}

func (f *fakeMemoryRepo) Insert(memory *model.Memory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, memory)
	return nil
}

func (f *fakeMemoryRepo) InsertMinimal(memory *model.Memory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimal = append(f.minimal, memory)
	return nil
}

func (f *fakeMemoryRepo) MatchByEmbedding(userID string, embedding pgvector.Vector, limit int) ([]*model.Memory, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	if limit < len(f.matched) {
		return f.matched[:limit], nil
	}
	return f.matched, nil
}

func (f *fakeMemoryRepo) RecentByUser(userID string, limit int) ([]*model.Memory, error) {
	return f.recent, nil
}

func (f *fakeMemoryRepo) CountByUser(userID string) (int, error) { return len(f.recent), nil }
func (f *fakeMemoryRepo) DeleteByUserID(userID string) error     { return nil }

type fakeUsageRepo struct {
	counts     map[string]int
	countErr   error
	increments int
}

func (f *fakeUsageRepo) CountForDay(userID, day string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[day], nil
}

func (f *fakeUsageRepo) Increment(userID, day string) error {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[day]++
	f.increments++
	return nil
}

func (f *fakeUsageRepo) DeleteByUserID(userID string) error { return nil }

var errFake = errors.New("fake failure")
