package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kindredhq/kindred/internal/llm"
	"github.com/kindredhq/kindred/internal/model"
)

type chatFixture struct {
	svc       *ChatService
	completer *fakeCompleter
	moderator *fakeModerator
	messages  *fakeMessageRepo
	convos    *fakeConversationRepo
	usage     *fakeUsageRepo
	profile   *fakeProfileRepo
}

func newChatFixture(premium bool) *chatFixture {
	completer := &fakeCompleter{reply: "Sounds great, tell me more."}
	moderator := &fakeModerator{results: []llm.ModerationResult{{Flagged: false}}}
	messages := &fakeMessageRepo{}
	convos := &fakeConversationRepo{}
	usage := &fakeUsageRepo{}
	profile := &fakeProfileRepo{profile: &model.Profile{UserID: "u1", Premium: premium, OnboardingComplete: true}}

	memoryService := NewMemoryService(&fakeMemoryRepo{}, completer, &fakeEmbedder{vec: []float32{0.1}})
	usageService := NewUsageService(usage, 30)
	safetyService := NewSafetyService(moderator)

	svc := NewChatService(
		profile,
		&fakeCompanionRepo{},
		convos,
		messages,
		memoryService,
		usageService,
		safetyService,
		completer,
	)

	return &chatFixture{
		svc:       svc,
		completer: completer,
		moderator: moderator,
		messages:  messages,
		convos:    convos,
		usage:     usage,
		profile:   profile,
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	f := newChatFixture(false)

	_, err := f.svc.Send(context.Background(), "u1", "   ", nil)
	if !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
}

func TestSendRejectsAtDailyCap(t *testing.T) {
	f := newChatFixture(false)
	f.usage.counts = map[string]int{model.UsageDay(time.Now()): 30}

	_, err := f.svc.Send(context.Background(), "u1", "hello", nil)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if f.completer.callCount() != 0 {
		t.Fatal("expected no model call when the quota is exhausted")
	}
	if len(f.messages.batches) != 0 {
		t.Fatal("expected nothing persisted when the quota is exhausted")
	}
}

func TestSendPremiumIgnoresDailyCap(t *testing.T) {
	f := newChatFixture(true)
	f.usage.counts = map[string]int{model.UsageDay(time.Now()): 500}

	result, err := f.svc.Send(context.Background(), "u1", "hello", nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.Remaining != nil {
		t.Fatal("expected no remaining count for premium users")
	}
}

func TestSendSelfHarmGetsScriptedReply(t *testing.T) {
	f := newChatFixture(false)
	f.moderator.results = []llm.ModerationResult{{
		Flagged:    true,
		Categories: map[string]bool{"self-harm/intent": true},
	}}

	result, err := f.svc.Send(context.Background(), "u1", "I want to hurt myself", nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !result.Safe {
		t.Fatal("expected a safe completion")
	}
	if result.Text != SelfHarmSafeReply {
		t.Fatalf("expected the scripted safe reply, got %q", result.Text)
	}
	if f.completer.callCount() != 0 {
		t.Fatal("expected no model call for a safe completion")
	}
	if len(f.messages.batches) != 1 {
		t.Fatalf("expected the safe turn to be persisted, got %d batches", len(f.messages.batches))
	}
	turn := f.messages.batches[0]
	if len(turn) != 2 || turn[1].Content != SelfHarmSafeReply {
		t.Fatal("expected user message and scripted reply in one batch")
	}
}

func TestSendBlocksDisallowedContent(t *testing.T) {
	f := newChatFixture(false)
	f.moderator.results = []llm.ModerationResult{{
		Flagged:    true,
		Categories: map[string]bool{"sexual/minors": true},
	}}

	_, err := f.svc.Send(context.Background(), "u1", "bad message", nil)
	if !errors.Is(err, ErrContentBlocked) {
		t.Fatalf("expected ErrContentBlocked, got %v", err)
	}
	if f.completer.callCount() != 0 {
		t.Fatal("expected no model call for blocked content")
	}
	if len(f.messages.batches) != 0 {
		t.Fatal("expected nothing persisted for blocked content")
	}
}

func TestSendDropsBlockedReply(t *testing.T) {
	f := newChatFixture(false)
	// First call gates the user message, second gates the reply.
	f.moderator.results = []llm.ModerationResult{
		{Flagged: false},
		{Flagged: true, Categories: map[string]bool{"violence/graphic": true}},
	}

	_, err := f.svc.Send(context.Background(), "u1", "hello", nil)
	if !errors.Is(err, ErrContentBlocked) {
		t.Fatalf("expected ErrContentBlocked, got %v", err)
	}
	if len(f.messages.batches) != 0 {
		t.Fatal("expected a blocked reply to leave nothing persisted")
	}
}

func TestSendMapsCompletionFailure(t *testing.T) {
	f := newChatFixture(false)
	f.completer.err = errFake

	_, err := f.svc.Send(context.Background(), "u1", "hello", nil)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if len(f.messages.batches) != 0 {
		t.Fatal("expected nothing persisted after an upstream failure")
	}
}

func TestSendPersistsTurnAndCountsUsage(t *testing.T) {
	f := newChatFixture(false)

	result, err := f.svc.Send(context.Background(), "u1", "hello", nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.Text != "Sounds great, tell me more." {
		t.Fatalf("unexpected reply %q", result.Text)
	}
	if result.Safe {
		t.Fatal("expected a normal completion")
	}

	if len(f.messages.batches) != 1 {
		t.Fatalf("expected 1 persisted batch, got %d", len(f.messages.batches))
	}
	turn := f.messages.batches[0]
	if turn[0].Role != model.RoleUser || turn[1].Role != model.RoleAssistant {
		t.Fatal("expected user then assistant message in the batch")
	}

	if result.Remaining == nil {
		t.Fatal("expected a remaining count for free users")
	}
	if *result.Remaining != 29 {
		t.Fatalf("expected 29 remaining after the first message, got %d", *result.Remaining)
	}
}

func TestSendIgnoresUnownedConversationID(t *testing.T) {
	f := newChatFixture(false)
	unknown := "someone-elses-conversation"

	_, err := f.svc.Send(context.Background(), "u1", "hello", &unknown)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(f.convos.touched) != 0 {
		t.Fatal("expected an unowned conversation not to be touched")
	}
}

func TestSendTouchesOwnedConversation(t *testing.T) {
	f := newChatFixture(false)
	f.convos.conversation = &model.Conversation{ID: "conv-1", UserID: "u1"}
	id := "conv-1"

	_, err := f.svc.Send(context.Background(), "u1", "hello", &id)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(f.convos.touched) != 1 || f.convos.touched[0] != "conv-1" {
		t.Fatalf("expected conversation touched once, got %v", f.convos.touched)
	}
}
