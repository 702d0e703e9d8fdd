package service

import (
	"strings"
	"testing"

	"github.com/kindredhq/kindred/internal/model"
)

func strp(s string) *string { return &s }

func TestEnsureCreatesWithDefaults(t *testing.T) {
	repo := &fakeCompanionRepo{}
	svc := NewCompanionService(repo)

	companion, err := svc.Ensure("u1", CompanionUpdate{})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if companion.Name != "Companion" {
		t.Fatalf("expected default name, got %q", companion.Name)
	}
	if companion.Tone != model.ToneFriendly || companion.Expertise != model.ExpertiseGeneralist {
		t.Fatalf("expected default tone and expertise, got %q/%q", companion.Tone, companion.Expertise)
	}
	if repo.upserted == nil {
		t.Fatal("expected companion to be upserted")
	}
}

func TestEnsureMergesOverExisting(t *testing.T) {
	repo := &fakeCompanionRepo{companion: &model.Companion{
		UserID:    "u1",
		Name:      "Milo",
		Tone:      model.ToneFunny,
		Expertise: model.ExpertiseCoach,
	}}
	svc := NewCompanionService(repo)

	companion, err := svc.Ensure("u1", CompanionUpdate{Tone: strp(model.ToneSupportive)})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if companion.Name != "Milo" {
		t.Fatalf("expected existing name kept, got %q", companion.Name)
	}
	if companion.Tone != model.ToneSupportive {
		t.Fatalf("expected tone updated, got %q", companion.Tone)
	}
	if companion.Expertise != model.ExpertiseCoach {
		t.Fatalf("expected expertise kept, got %q", companion.Expertise)
	}
}

func TestEnsureFallsBackOnInvalidValues(t *testing.T) {
	repo := &fakeCompanionRepo{}
	svc := NewCompanionService(repo)

	companion, err := svc.Ensure("u1", CompanionUpdate{
		Name:      strp("  "),
		Tone:      strp("sarcastic"),
		Expertise: strp("wizard"),
	})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if companion.Name != "Companion" {
		t.Fatalf("expected blank name to fall back, got %q", companion.Name)
	}
	if companion.Tone != model.ToneFriendly {
		t.Fatalf("expected invalid tone to fall back, got %q", companion.Tone)
	}
	if companion.Expertise != model.ExpertiseGeneralist {
		t.Fatalf("expected invalid expertise to fall back, got %q", companion.Expertise)
	}
}

func TestEnsureRebuildsSystemPrompt(t *testing.T) {
	repo := &fakeCompanionRepo{}
	svc := NewCompanionService(repo)

	companion, err := svc.Ensure("u1", CompanionUpdate{
		Name: strp("Milo"),
		Goal: strp("help me stay focused"),
	})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	for _, want := range []string{"Milo", model.ToneFriendly, "help me stay focused"} {
		if !strings.Contains(companion.SystemPrompt, want) {
			t.Fatalf("system prompt missing %q: %q", want, companion.SystemPrompt)
		}
	}
}

func TestResetMissingCompanion(t *testing.T) {
	repo := &fakeCompanionRepo{}
	svc := NewCompanionService(repo)

	if err := svc.Reset("u1"); err != nil {
		t.Fatalf("expected reset of missing companion to succeed, got %v", err)
	}
	if !repo.deleted {
		t.Fatal("expected delete to be attempted")
	}
}
