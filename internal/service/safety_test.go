package service

import (
	"context"
	"strings"
	"testing"

	"github.com/kindredhq/kindred/internal/llm"
)

func TestGateAllowsCleanContent(t *testing.T) {
	moderator := &fakeModerator{results: []llm.ModerationResult{{Flagged: false}}}
	svc := NewSafetyService(moderator)

	result := svc.Gate(context.Background(), "hello there")
	if !result.OK {
		t.Fatalf("expected clean content to pass, got reason %q", result.Reason)
	}
}

func TestGateFailsOpenOnModerationError(t *testing.T) {
	moderator := &fakeModerator{err: errFake}
	svc := NewSafetyService(moderator)

	result := svc.Gate(context.Background(), "anything")
	if !result.OK {
		t.Fatal("expected moderation outage to fail open")
	}
}

func TestGateBlocksFlaggedCategories(t *testing.T) {
	tests := []struct {
		name       string
		categories map[string]bool
		reason     string
	}{
		{"self harm intent", map[string]bool{"self-harm/intent": true}, SafetyReasonSelfHarm},
		{"sexual minors", map[string]bool{"sexual/minors": true}, SafetyReasonSexualMinor},
		{"sexual explicit", map[string]bool{"sexual/explicit": true}, SafetyReasonSexualExplicit},
		{"graphic violence", map[string]bool{"violence/graphic": true}, SafetyReasonViolence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moderator := &fakeModerator{results: []llm.ModerationResult{{Flagged: true, Categories: tt.categories}}}
			svc := NewSafetyService(moderator)

			result := svc.Gate(context.Background(), "text")
			if result.OK {
				t.Fatal("expected content to be blocked")
			}
			if result.Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, result.Reason)
			}
		})
	}
}

func TestGateSelfHarmOutranksOtherCategories(t *testing.T) {
	moderator := &fakeModerator{results: []llm.ModerationResult{{
		Flagged: true,
		Categories: map[string]bool{
			"violence":         true,
			"sexual/explicit":  true,
			"self-harm/intent": true,
		},
	}}}
	svc := NewSafetyService(moderator)

	result := svc.Gate(context.Background(), "text")
	if result.Reason != SafetyReasonSelfHarm {
		t.Fatalf("expected self harm to take priority, got %q", result.Reason)
	}
}

func TestGateAllowsFlaggedContentOutsideKnownBuckets(t *testing.T) {
	moderator := &fakeModerator{results: []llm.ModerationResult{{
		Flagged:    true,
		Categories: map[string]bool{"harassment": true},
	}}}
	svc := NewSafetyService(moderator)

	result := svc.Gate(context.Background(), "text")
	if !result.OK {
		t.Fatalf("expected unmapped category to pass, got reason %q", result.Reason)
	}
	if len(result.Categories) != 1 || result.Categories[0] != "harassment" {
		t.Fatalf("expected flagged categories to be reported, got %v", result.Categories)
	}
}

func TestSelfHarmSafeReplyNamesCrisisLines(t *testing.T) {
	for _, want := range []string{"988", "116 123", "findahelpline.com"} {
		if !strings.Contains(SelfHarmSafeReply, want) {
			t.Fatalf("safe reply missing %q", want)
		}
	}
}
