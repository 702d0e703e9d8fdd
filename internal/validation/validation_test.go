package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "ana@example.com", false},
		{"empty", "", true},
		{"missing domain", "ana@", true},
		{"missing at", "ana.example.com", true},
		{"too long", strings.Repeat("a", 250) + "@x.io", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "correct horse battery", false},
		{"too short", "short12345", true},
		{"too long", strings.Repeat("a", 73), true},
		{"contains common pattern", "mysecretpassword", true},
		{"common pattern uppercase", "MySecretPASSWORD", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChatMessage(t *testing.T) {
	if err := ValidateChatMessage("hello"); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateChatMessage("   "); err == nil {
		t.Fatal("expected error for whitespace-only message")
	}
	if err := ValidateChatMessage(strings.Repeat("x", 4001)); err == nil {
		t.Fatal("expected error for over-long message")
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Ana"); err != nil {
		t.Fatalf("expected valid nickname, got %v", err)
	}
	if err := ValidateName("  "); err == nil {
		t.Fatal("expected error for blank nickname")
	}
	if err := ValidateName(strings.Repeat("a", 51)); err == nil {
		t.Fatal("expected error for over-long nickname")
	}
}

func TestNormalizeConversationID(t *testing.T) {
	if got := NormalizeConversationID(""); got != nil {
		t.Fatalf("expected nil for empty id, got %v", *got)
	}
	if got := NormalizeConversationID("not-a-uuid"); got != nil {
		t.Fatalf("expected nil for malformed id, got %v", *got)
	}

	id := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	got := NormalizeConversationID(" " + id + " ")
	if got == nil || *got != id {
		t.Fatalf("expected %q, got %v", id, got)
	}
}
