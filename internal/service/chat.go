package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kindredhq/kindred/internal/llm"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
)

var (
	ErrMessageRequired     = errors.New("message required")
	ErrQuotaExceeded       = errors.New("daily free limit reached")
	ErrContentBlocked      = errors.New("content blocked by safety policy")
	ErrUpstreamUnavailable = errors.New("ai is momentarily unavailable")
)

const (
	chatHistoryLimit    = 12
	chatMemoryLimit     = 5
	captureContextLines = 6
)

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Text string
	// Remaining is set for free users only: messages left today after this
	// one.
	Remaining *int
	// Safe marks a scripted safety reply instead of a model completion.
	Safe bool
}

type ChatService struct {
	profileRepo      repository.ProfileRepository
	companionRepo    repository.CompanionRepository
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	memoryService    *MemoryService
	usageService     *UsageService
	safetyService    *SafetyService
	completer        llm.Completer
}

func NewChatService(
	profileRepo repository.ProfileRepository,
	companionRepo repository.CompanionRepository,
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	memoryService *MemoryService,
	usageService *UsageService,
	safetyService *SafetyService,
	completer llm.Completer,
) *ChatService {
	return &ChatService{
		profileRepo:      profileRepo,
		companionRepo:    companionRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		memoryService:    memoryService,
		usageService:     usageService,
		safetyService:    safetyService,
		completer:        completer,
	}
}

// Send runs one chat turn: safety gates, quota, prompt assembly, completion,
// persistence, usage accounting, and background memory capture.
func (s *ChatService) Send(ctx context.Context, userID, message string, conversationID *string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrMessageRequired
	}

	conversationID = s.resolveConversation(userID, conversationID)

	// Incoming gate. Self-harm gets a scripted supportive reply; other
	// blocked categories refuse the turn without persisting anything.
	gate := s.safetyService.Gate(ctx, message)
	if !gate.OK {
		if gate.Reason == SafetyReasonSelfHarm {
			return s.safeComplete(userID, message, conversationID)
		}
		slog.Info("chat message blocked", "user_id", userID, "reason", gate.Reason)
		return nil, fmt.Errorf("%w: %s", ErrContentBlocked, gate.Reason)
	}

	premium, err := s.isPremium(userID)
	if err != nil {
		return nil, err
	}

	if !premium {
		used, err := s.usageService.UsedToday(userID)
		if err != nil {
			return nil, err
		}
		if s.usageService.AtCap(used) {
			return nil, ErrQuotaExceeded
		}
	}

	prompt, history := s.assemblePrompt(ctx, userID, message, conversationID)

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		slog.Error("chat completion failed", "error", err, "user_id", userID)
		return nil, ErrUpstreamUnavailable
	}
	text = strings.TrimSpace(text)

	// Outgoing gate. A reply the model shouldn't have produced is dropped,
	// nothing from this turn is persisted.
	if out := s.safetyService.Gate(ctx, text); !out.OK {
		slog.Warn("chat reply blocked", "user_id", userID, "reason", out.Reason)
		return nil, fmt.Errorf("%w: %s", ErrContentBlocked, out.Reason)
	}

	if err := s.persistTurn(userID, conversationID, message, text); err != nil {
		return nil, err
	}

	result := &ChatResult{Text: text}
	if !premium {
		remaining, err := s.usageService.Remaining(userID)
		if err == nil {
			result.Remaining = &remaining
		}
	}

	// Memory capture runs after the response; its context must outlive the
	// request. A handful of recent lines is enough signal for extraction.
	if len(history) > captureContextLines {
		history = history[len(history)-captureContextLines:]
	}
	go s.memoryService.CaptureFromMessage(context.WithoutCancel(ctx), userID, conversationID, message, history)

	return result, nil
}

// safeComplete handles self-harm turns: the scripted reply is persisted and
// counted like a normal turn so the conversation keeps its thread.
func (s *ChatService) safeComplete(userID, message string, conversationID *string) (*ChatResult, error) {
	slog.Info("chat safe completion", "user_id", userID)

	if err := s.persistTurn(userID, conversationID, message, SelfHarmSafeReply); err != nil {
		return nil, err
	}

	return &ChatResult{Text: SelfHarmSafeReply, Safe: true}, nil
}

// resolveConversation drops conversation IDs the user doesn't own rather
// than failing the turn.
func (s *ChatService) resolveConversation(userID string, conversationID *string) *string {
	if conversationID == nil || *conversationID == "" {
		return nil
	}
	if _, err := s.conversationRepo.ByID(*conversationID, userID); err != nil {
		slog.Warn("unknown conversation on chat turn, ignoring", "user_id", userID, "conversation_id", *conversationID)
		return nil
	}
	return conversationID
}

// assemblePrompt builds the model input: companion persona, up to five
// memory bullets, and the recent history. Returns the history lines too so
// memory capture can reuse them.
func (s *ChatService) assemblePrompt(ctx context.Context, userID, message string, conversationID *string) ([]llm.ChatMessage, []string) {
	systemPrompt := model.DefaultSystemPrompt
	if companion, err := s.companionRepo.ByUserID(userID); err == nil {
		systemPrompt = companion.SystemPrompt
	}

	if memories, err := s.memoryService.Search(ctx, userID, message, chatMemoryLimit); err == nil && len(memories) > 0 {
		var bullets []string
		for _, m := range memories {
			bullets = append(bullets, "• "+m.Content)
		}
		systemPrompt += "\nThese user facts may help:\n" + strings.Join(bullets, "\n")
	}

	prompt := []llm.ChatMessage{{Role: "system", Content: systemPrompt}}

	var recent []*model.Message
	var err error
	if conversationID != nil {
		recent, err = s.messageRepo.RecentByConversation(*conversationID, userID, chatHistoryLimit)
	} else {
		recent, err = s.messageRepo.RecentByUser(userID, chatHistoryLimit)
	}
	if err != nil {
		slog.Warn("failed to load chat history", "error", err, "user_id", userID)
	}

	var history []string
	for _, m := range recent {
		prompt = append(prompt, llm.ChatMessage{Role: m.Role, Content: m.Content})

		speaker := "Assistant"
		if m.Role == model.RoleUser {
			speaker = "User"
		}
		history = append(history, fmt.Sprintf("%s: %s", speaker, m.Content))
	}

	prompt = append(prompt, llm.ChatMessage{Role: model.RoleUser, Content: message})
	return prompt, history
}

// persistTurn saves both sides of the exchange, bumps the conversation, and
// records usage. Usage is counted only after the turn is durably stored.
func (s *ChatService) persistTurn(userID string, conversationID *string, userMessage, assistantReply string) error {
	turn := []*model.Message{
		{UserID: userID, ConversationID: conversationID, Role: model.RoleUser, Content: userMessage},
		{UserID: userID, ConversationID: conversationID, Role: model.RoleAssistant, Content: assistantReply},
	}
	if err := s.messageRepo.CreateBatch(turn); err != nil {
		return fmt.Errorf("failed to save messages: %w", err)
	}

	if conversationID != nil {
		if err := s.conversationRepo.Touch(*conversationID); err != nil {
			slog.Warn("failed to touch conversation", "error", err, "conversation_id", *conversationID)
		}
	}

	if err := s.usageService.Record(userID); err != nil {
		slog.Warn("failed to record usage", "error", err, "user_id", userID)
	}

	return nil
}

func (s *ChatService) isPremium(userID string) (bool, error) {
	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return false, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile.Premium, nil
}
