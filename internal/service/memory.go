package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/kindredhq/kindred/internal/llm"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
	"github.com/pgvector/pgvector-go"
)

const (
	memoryDefaultImportance = 3
	memoryCaptureLimit      = 5
	memorySearchMaxResults  = 50
)

// ExtractedMemory is one durable fact pulled out of a user message, already
// normalized.
type ExtractedMemory struct {
	Content    string   `json:"content"`
	Kind       string   `json:"type"`
	Category   string   `json:"category"`
	Importance int      `json:"importance"`
	Tags       []string `json:"tags"`
}

type MemoryService struct {
	repo      repository.MemoryRepository
	completer llm.Completer
	embedder  llm.Embedder
}

func NewMemoryService(repo repository.MemoryRepository, completer llm.Completer, embedder llm.Embedder) *MemoryService {
	return &MemoryService{
		repo:      repo,
		completer: completer,
		embedder:  embedder,
	}
}

// Extract asks the model for durable facts in the message. Extraction is
// best-effort: any model or parse failure yields an empty list, never an
// error.
func (s *MemoryService) Extract(ctx context.Context, message string, conversationContext []string) []ExtractedMemory {
	parts := []string{
		`Extract durable user memories as JSON. STRICTLY return a JSON object like: {"memories":[{...}]}.`,
		`Each memory: { "content": string, "type":"semantic"|"episodic", "category": string (optional), "importance": 1-5, "tags": string[] (<=5) }`,
		fmt.Sprintf(`Message: """%s"""`, message),
	}
	if len(conversationContext) > 0 {
		parts = append(parts, "Recent context (optional):\n"+strings.Join(conversationContext, "\n"))
	}
	parts = append(parts, `If nothing important, return {"memories":[]}. Do not include commentary.`)

	raw, err := s.completer.Complete(ctx, []llm.ChatMessage{
		{Role: "system", Content: "You output ONLY JSON as instructed. No prose."},
		{Role: "user", Content: strings.Join(parts, "\n\n")},
	})
	if err != nil {
		slog.Warn("memory extraction failed", "error", err)
		return nil
	}

	return normalizeMemories(parseMemoryJSON(raw))
}

// CaptureFromMessage extracts and persists memories for a chat turn. Runs
// after the reply is already sent, so every failure is swallowed and logged.
func (s *MemoryService) CaptureFromMessage(ctx context.Context, userID string, conversationID *string, message string, conversationContext []string) {
	extracted := s.Extract(ctx, message, conversationContext)
	if len(extracted) > memoryCaptureLimit {
		extracted = extracted[:memoryCaptureLimit]
	}

	for _, e := range extracted {
		memory := &model.Memory{
			UserID:         userID,
			ConversationID: conversationID,
			Content:        e.Content,
			Kind:           e.Kind,
			Category:       e.Category,
			Importance:     e.Importance,
			Tags:           model.StringList(e.Tags),
		}
		if err := s.Save(ctx, memory); err != nil {
			slog.Warn("memory save failed", "error", err, "user_id", userID)
		}
	}
}

// Save embeds and stores a memory. The embedding is best-effort; a memory
// without a vector still participates in recency retrieval. When the full
// insert fails (older schema), retries with the minimal column set.
func (s *MemoryService) Save(ctx context.Context, memory *model.Memory) error {
	if strings.TrimSpace(memory.Content) == "" {
		return fmt.Errorf("memory content required")
	}
	if memory.Importance == 0 {
		memory.Importance = memoryDefaultImportance
	}

	if embedding, err := s.embedder.Embed(ctx, memory.Content); err != nil {
		slog.Warn("embedding failed, saving memory without vector", "error", err, "user_id", memory.UserID)
	} else {
		v := pgvector.NewVector(embedding)
		memory.Embedding = &v
	}

	if err := s.repo.Insert(memory); err != nil {
		slog.Warn("full memory insert failed, retrying minimal", "error", err, "user_id", memory.UserID)
		return s.repo.InsertMinimal(memory)
	}

	return nil
}

// Search embeds the query and runs a user-scoped vector search. Any failure
// along the way degrades to the user's most recent memories.
func (s *MemoryService) Search(ctx context.Context, userID, query string, limit int) ([]*model.Memory, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > memorySearchMaxResults {
		limit = memorySearchMaxResults
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed, falling back to recency", "error", err, "user_id", userID)
		return s.repo.RecentByUser(userID, limit)
	}

	memories, err := s.repo.MatchByEmbedding(userID, pgvector.NewVector(embedding), limit)
	if err != nil {
		slog.Warn("vector search failed, falling back to recency", "error", err, "user_id", userID)
		return s.repo.RecentByUser(userID, limit)
	}

	return memories, nil
}

func (s *MemoryService) Recent(userID string, limit int) ([]*model.Memory, error) {
	return s.repo.RecentByUser(userID, limit)
}

func (s *MemoryService) Count(userID string) (int, error) {
	return s.repo.CountByUser(userID)
}

// Categorize buckets a memory by keyword when the model didn't provide a
// category.
func Categorize(content string) string {
	text := strings.ToLower(content)
	buckets := []struct {
		category string
		keywords []string
	}{
		{"personal", []string{"name", "age", "birthday", "live", "from", "family"}},
		{"work", []string{"job", "work", "career", "company", "boss", "manager", "project"}},
		{"relationships", []string{"partner", "spouse", "dating", "friend", "relationship"}},
		{"hobbies", []string{"hobby", "like", "enjoy", "play", "watch", "read", "music", "game", "sport"}},
		{"health", []string{"health", "exercise", "fitness", "diet", "sleep", "medical"}},
		{"goals", []string{"goal", "plan", "want to", "learning", "working on", "aspire"}},
	}

	for _, b := range buckets {
		for _, k := range b.keywords {
			if strings.Contains(text, k) {
				return b.category
			}
		}
	}
	return "general"
}

type rawMemory struct {
	Content    string   `json:"content"`
	Kind       string   `json:"type"`
	Category   string   `json:"category"`
	Importance *float64 `json:"importance"`
	Tags       []string `json:"tags"`
}

type memoryEnvelope struct {
	Memories []rawMemory `json:"memories"`
}

var codeFenceOpen = regexp.MustCompile("(?i)^\\s*```(?:json)?")
var codeFenceClose = regexp.MustCompile("```\\s*$")

// parseMemoryJSON tolerates models that wrap the JSON object in a markdown
// code fence. Unparseable output yields no memories.
func parseMemoryJSON(raw string) []rawMemory {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var envelope memoryEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil {
		return envelope.Memories
	}

	cleaned := codeFenceClose.ReplaceAllString(codeFenceOpen.ReplaceAllString(raw, ""), "")
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil
	}
	return envelope.Memories
}

func normalizeMemories(items []rawMemory) []ExtractedMemory {
	var out []ExtractedMemory
	for _, item := range items {
		if n := normalizeMemory(item); n != nil {
			out = append(out, *n)
		}
	}
	return out
}

func normalizeMemory(m rawMemory) *ExtractedMemory {
	content := strings.TrimSpace(m.Content)
	if len(content) > model.MemoryMaxContentLen {
		content = content[:model.MemoryMaxContentLen]
	}
	if content == "" {
		return nil
	}

	kind := model.MemoryKindSemantic
	if m.Kind == model.MemoryKindEpisodic {
		kind = model.MemoryKindEpisodic
	}

	importance := float64(memoryDefaultImportance)
	if m.Importance != nil {
		importance = *m.Importance
	}
	clamped := int(math.Round(importance))
	if clamped < 1 {
		clamped = 1
	}
	if clamped > 5 {
		clamped = 5
	}

	category := strings.TrimSpace(m.Category)
	if category == "" {
		category = Categorize(content)
	}

	seen := make(map[string]bool)
	var tags []string
	for _, t := range m.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
		if len(tags) == model.MemoryMaxTags {
			break
		}
	}

	return &ExtractedMemory{
		Content:    content,
		Kind:       kind,
		Category:   category,
		Importance: clamped,
		Tags:       tags,
	}
}
