package service

import (
	"context"
	"strings"
	"testing"

	"github.com/kindredhq/kindred/internal/model"
)

func TestParseMemoryJSONPlain(t *testing.T) {
	raw := `{"memories":[{"content":"Likes jazz","type":"semantic","importance":4,"tags":["music"]}]}`

	memories := parseMemoryJSON(raw)
	if len(memories) != 1 {
		t.Fatalf("expected 1 memory, got %d", len(memories))
	}
	if memories[0].Content != "Likes jazz" {
		t.Fatalf("unexpected content %q", memories[0].Content)
	}
}

func TestParseMemoryJSONStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"memories\":[{\"content\":\"Works remotely\"}]}\n```"

	memories := parseMemoryJSON(raw)
	if len(memories) != 1 {
		t.Fatalf("expected fenced JSON to parse, got %d memories", len(memories))
	}
}

func TestParseMemoryJSONGarbageYieldsNothing(t *testing.T) {
	if got := parseMemoryJSON("Sure! Here are the memories you asked for."); got != nil {
		t.Fatalf("expected nil for prose output, got %v", got)
	}
	if got := parseMemoryJSON(""); got != nil {
		t.Fatalf("expected nil for empty output, got %v", got)
	}
}

func TestNormalizeMemoryClampsImportance(t *testing.T) {
	nine := 9.0
	negative := -2.0
	half := 3.6

	tests := []struct {
		name       string
		importance *float64
		want       int
	}{
		{"too high", &nine, 5},
		{"too low", &negative, 1},
		{"rounded", &half, 4},
		{"missing", nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeMemory(rawMemory{Content: "fact", Importance: tt.importance})
			if got == nil {
				t.Fatal("expected a memory")
			}
			if got.Importance != tt.want {
				t.Fatalf("expected importance %d, got %d", tt.want, got.Importance)
			}
		})
	}
}

func TestNormalizeMemoryTruncatesContent(t *testing.T) {
	long := strings.Repeat("a", model.MemoryMaxContentLen+100)

	got := normalizeMemory(rawMemory{Content: long})
	if got == nil {
		t.Fatal("expected a memory")
	}
	if len(got.Content) != model.MemoryMaxContentLen {
		t.Fatalf("expected content truncated to %d, got %d", model.MemoryMaxContentLen, len(got.Content))
	}
}

func TestNormalizeMemoryRejectsEmptyContent(t *testing.T) {
	if got := normalizeMemory(rawMemory{Content: "   "}); got != nil {
		t.Fatalf("expected nil for blank content, got %v", got)
	}
}

func TestNormalizeMemoryTags(t *testing.T) {
	got := normalizeMemory(rawMemory{
		Content: "fact",
		Tags:    []string{"Music", "music", " JAZZ ", "", "one", "two", "three", "four"},
	})
	if got == nil {
		t.Fatal("expected a memory")
	}
	if len(got.Tags) != model.MemoryMaxTags {
		t.Fatalf("expected %d tags, got %d: %v", model.MemoryMaxTags, len(got.Tags), got.Tags)
	}
	if got.Tags[0] != "music" || got.Tags[1] != "jazz" {
		t.Fatalf("expected lowercased deduped tags, got %v", got.Tags)
	}
}

func TestNormalizeMemoryKindDefaultsToSemantic(t *testing.T) {
	got := normalizeMemory(rawMemory{Content: "fact", Kind: "procedural"})
	if got.Kind != model.MemoryKindSemantic {
		t.Fatalf("expected semantic, got %q", got.Kind)
	}

	got = normalizeMemory(rawMemory{Content: "fact", Kind: "episodic"})
	if got.Kind != model.MemoryKindEpisodic {
		t.Fatalf("expected episodic, got %q", got.Kind)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"My name is Ana and I live in Lisbon", "personal"},
		{"Started a new job at a startup", "work"},
		{"My partner and I adopted a cat", "relationships"},
		{"I enjoy playing guitar", "hobbies"},
		{"Trying to fix my sleep schedule", "health"},
		{"Working on learning Spanish", "goals"},
		{"xyzzy", "general"},
	}

	for _, tt := range tests {
		if got := Categorize(tt.content); got != tt.want {
			t.Fatalf("Categorize(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestExtractReturnsNothingOnModelError(t *testing.T) {
	svc := NewMemoryService(&fakeMemoryRepo{}, &fakeCompleter{err: errFake}, &fakeEmbedder{})

	if got := svc.Extract(context.Background(), "hello", nil); got != nil {
		t.Fatalf("expected nil on model error, got %v", got)
	}
}

func TestCaptureFromMessageCapsAtFive(t *testing.T) {
	reply := `{"memories":[
		{"content":"a"},{"content":"b"},{"content":"c"},
		{"content":"d"},{"content":"e"},{"content":"f"},{"content":"g"}
	]}`
	repo := &fakeMemoryRepo{}
	svc := NewMemoryService(repo, &fakeCompleter{reply: reply}, &fakeEmbedder{vec: []float32{0.1}})

	svc.CaptureFromMessage(context.Background(), "u1", nil, "hello", nil)

	if len(repo.inserted) != 5 {
		t.Fatalf("expected 5 memories saved, got %d", len(repo.inserted))
	}
}

func TestSaveWithoutEmbeddingOnEmbedFailure(t *testing.T) {
	repo := &fakeMemoryRepo{}
	svc := NewMemoryService(repo, &fakeCompleter{}, &fakeEmbedder{err: errFake})

	memory := &model.Memory{UserID: "u1", Content: "fact"}
	if err := svc.Save(context.Background(), memory); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(repo.inserted))
	}
	if repo.inserted[0].Embedding != nil {
		t.Fatal("expected no embedding after embed failure")
	}
	if repo.inserted[0].Importance != memoryDefaultImportance {
		t.Fatalf("expected default importance, got %d", repo.inserted[0].Importance)
	}
}

func TestSaveFallsBackToMinimalInsert(t *testing.T) {
	repo := &fakeMemoryRepo{insertErr: errFake}
	svc := NewMemoryService(repo, &fakeCompleter{}, &fakeEmbedder{vec: []float32{0.1}})

	if err := svc.Save(context.Background(), &model.Memory{UserID: "u1", Content: "fact"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(repo.minimal) != 1 {
		t.Fatalf("expected minimal insert fallback, got %d", len(repo.minimal))
	}
}

func TestSearchFallsBackToRecency(t *testing.T) {
	recent := []*model.Memory{{Content: "recent fact"}}

	// Query embedding fails.
	repo := &fakeMemoryRepo{recent: recent}
	svc := NewMemoryService(repo, &fakeCompleter{}, &fakeEmbedder{err: errFake})
	got, err := svc.Search(context.Background(), "u1", "query", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "recent fact" {
		t.Fatalf("expected recency fallback, got %v", got)
	}

	// Vector search fails.
	repo = &fakeMemoryRepo{recent: recent, matchErr: errFake}
	svc = NewMemoryService(repo, &fakeCompleter{}, &fakeEmbedder{vec: []float32{0.1}})
	got, err = svc.Search(context.Background(), "u1", "query", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "recent fact" {
		t.Fatalf("expected recency fallback, got %v", got)
	}
}

func TestSearchClampsLimit(t *testing.T) {
	matched := make([]*model.Memory, 60)
	for i := range matched {
		matched[i] = &model.Memory{Content: "m"}
	}
	repo := &fakeMemoryRepo{matched: matched}
	svc := NewMemoryService(repo, &fakeCompleter{}, &fakeEmbedder{vec: []float32{0.1}})

	got, err := svc.Search(context.Background(), "u1", "query", 500)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != memorySearchMaxResults {
		t.Fatalf("expected limit clamped to %d, got %d", memorySearchMaxResults, len(got))
	}
}
