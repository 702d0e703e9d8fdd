package model

import (
	"fmt"
	"strings"
	"time"
)

type Companion struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Name         string    `db:"name"`
	Tone         string    `db:"tone"`
	Expertise    string    `db:"expertise"`
	Goal         *string   `db:"goal"`
	SystemPrompt string    `db:"system_prompt"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const (
	ToneFriendly     = "friendly"
	ToneProfessional = "professional"
	ToneFunny        = "funny"
	ToneSupportive   = "supportive"
)

const (
	ExpertiseGeneralist = "generalist"
	ExpertiseCoach      = "coach"
	ExpertiseResearcher = "researcher"
	ExpertiseTherapist  = "therapist"
)

// DefaultSystemPrompt is used when the user has not configured a companion.
const DefaultSystemPrompt = "You are a warm, supportive companion. Keep replies to 2-4 sentences."

func ValidTone(v string) bool {
	switch v {
	case ToneFriendly, ToneProfessional, ToneFunny, ToneSupportive:
		return true
	}
	return false
}

func ValidExpertise(v string) bool {
	switch v {
	case ExpertiseGeneralist, ExpertiseCoach, ExpertiseResearcher, ExpertiseTherapist:
		return true
	}
	return false
}

// BuildSystemPrompt derives the companion's system instruction from its
// configured fields. The same inputs always produce the same prompt.
func BuildSystemPrompt(name, tone, expertise string, goal *string) string {
	parts := []string{
		fmt.Sprintf("You are %s, an AI companion.", name),
		fmt.Sprintf("Tone: %s. Role: %s.", tone, expertise),
	}
	if goal != nil && strings.TrimSpace(*goal) != "" {
		parts = append(parts, fmt.Sprintf("Primary goal: %s.", strings.TrimSpace(*goal)))
	}
	parts = append(parts, "Keep replies warm, supportive, and 2-4 sentences.")
	return strings.Join(parts, " ")
}
