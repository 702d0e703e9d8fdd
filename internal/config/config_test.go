package config

import (
	"testing"
	"time"
)

func TestEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "value")

	if got := envString("TEST_STRING", "default"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := envString("TEST_STRING_MISSING", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "not a number")

	if got := envInt("TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := envInt("TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("expected default for bad value, got %d", got)
	}
	if got := envInt("TEST_INT_MISSING", 7); got != 7 {
		t.Fatalf("expected default for missing value, got %d", got)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_BAD", "maybe")

	if got := envBool("TEST_BOOL", false); !got {
		t.Fatal("expected true")
	}
	if got := envBool("TEST_BOOL_BAD", true); !got {
		t.Fatal("expected default for bad value")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90m")
	t.Setenv("TEST_DURATION_BAD", "soon")

	if got := envDuration("TEST_DURATION", time.Hour); got != 90*time.Minute {
		t.Fatalf("expected 90m, got %v", got)
	}
	if got := envDuration("TEST_DURATION_BAD", time.Hour); got != time.Hour {
		t.Fatalf("expected default for bad value, got %v", got)
	}
}

func TestSanitizedExcludesSecrets(t *testing.T) {
	cfg := &Config{
		AppName:      "Kindred",
		JWTSecret:    "secret",
		OpenAIAPIKey: "sk-test",
		ResendAPIKey: "re-test",
	}

	sanitized := cfg.Sanitized()
	if sanitized.AppName != "Kindred" {
		t.Fatalf("expected public fields kept, got %q", sanitized.AppName)
	}
	if sanitized.JWTSecret != "" || sanitized.OpenAIAPIKey != "" || sanitized.ResendAPIKey != "" {
		t.Fatal("expected secrets to be excluded")
	}
}
