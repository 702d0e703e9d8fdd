package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kindredhq/kindred/internal/llm"
)

// Reasons content may be blocked or safe-completed.
const (
	SafetyReasonSelfHarm       = "self_harm"
	SafetyReasonSexualMinor    = "sexual_minor"
	SafetyReasonSexualExplicit = "sexual_explicit"
	SafetyReasonViolence       = "violence"
)

// SelfHarmSafeReply is returned instead of a model completion when the user
// expresses self-harm intent. Always shown verbatim.
var SelfHarmSafeReply = strings.Join([]string{
	"I'm really sorry you're feeling this way. I can't help with anything that could harm you,",
	"but you're not alone and you deserve support. If you're in immediate danger, please call your local emergency number.",
	"",
	"US: call or text 988 (Suicide & Crisis Lifeline).",
	"UK & ROI: Samaritans at 116 123.",
	"Canada: call or text 988.",
	"Find local resources: https://findahelpline.com",
	"",
	"If you want, we can talk about what's been hardest today and think of one small step to feel a bit safer.",
}, " ")

// GateResult is the outcome of running text through moderation.
type GateResult struct {
	OK         bool
	Reason     string
	Categories []string
}

type SafetyService struct {
	moderator llm.Moderator
}

func NewSafetyService(moderator llm.Moderator) *SafetyService {
	return &SafetyService{moderator: moderator}
}

// Gate classifies text and decides whether the conversation may proceed.
// Moderation outages fail open: companionship beats a hard error page, and
// the model's own refusals still apply.
func (s *SafetyService) Gate(ctx context.Context, text string) *GateResult {
	result, err := s.moderator.Moderate(ctx, text)
	if err != nil {
		slog.Warn("moderation unavailable, allowing content", "error", err)
		return &GateResult{OK: true}
	}

	var categories []string
	for name, flagged := range result.Categories {
		if flagged {
			categories = append(categories, name)
		}
	}

	reason := mapReason(result.Categories)
	if !result.Flagged || reason == "" {
		return &GateResult{OK: true, Categories: categories}
	}

	return &GateResult{OK: false, Reason: reason, Categories: categories}
}

// mapReason picks the highest-priority actionable category. Flagged content
// outside these buckets passes through untouched.
func mapReason(categories map[string]bool) string {
	if categories["self-harm"] || categories["self-harm/intent"] || categories["self-harm/instructions"] {
		return SafetyReasonSelfHarm
	}
	if categories["sexual/minors"] {
		return SafetyReasonSexualMinor
	}
	if categories["sexual/explicit"] {
		return SafetyReasonSexualExplicit
	}
	if categories["violence/graphic"] || categories["violence/threats"] || categories["violence"] {
		return SafetyReasonViolence
	}
	return ""
}
