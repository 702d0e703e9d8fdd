package service

import (
	"testing"
	"time"

	"github.com/kindredhq/kindred/internal/model"
)

func TestUsageDayUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	late := time.Date(2026, 3, 1, 5, 0, 0, 0, loc) // Feb 28 20:00 UTC

	if got := model.UsageDay(late); got != "2026-02-28" {
		t.Fatalf("expected UTC day 2026-02-28, got %q", got)
	}
}

func TestRemainingFloorsAtZero(t *testing.T) {
	today := model.UsageDay(time.Now())
	repo := &fakeUsageRepo{counts: map[string]int{today: 45}}
	svc := NewUsageService(repo, 30)

	remaining, err := svc.Remaining("u1")
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", remaining)
	}
}

func TestRemainingCountsDown(t *testing.T) {
	today := model.UsageDay(time.Now())
	repo := &fakeUsageRepo{counts: map[string]int{today: 12}}
	svc := NewUsageService(repo, 30)

	remaining, err := svc.Remaining("u1")
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if remaining != 18 {
		t.Fatalf("expected 18 remaining, got %d", remaining)
	}
}

func TestAtCap(t *testing.T) {
	svc := NewUsageService(&fakeUsageRepo{}, 30)

	if svc.AtCap(29) {
		t.Fatal("expected 29 of 30 to be under the cap")
	}
	if !svc.AtCap(30) {
		t.Fatal("expected 30 of 30 to be at the cap")
	}
}

func TestRecordIncrementsToday(t *testing.T) {
	repo := &fakeUsageRepo{}
	svc := NewUsageService(repo, 30)

	if err := svc.Record("u1"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := svc.Record("u1"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	used, err := svc.UsedToday("u1")
	if err != nil {
		t.Fatalf("used today failed: %v", err)
	}
	if used != 2 {
		t.Fatalf("expected 2 used, got %d", used)
	}
}
