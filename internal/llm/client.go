package llm

import (
	"context"
	"fmt"

	"github.com/kindredhq/kindred/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// ChatMessage is one turn of model input.
type ChatMessage struct {
	Role    string
	Content string
}

// ModerationResult reports whether content tripped the moderation model and
// which categories fired.
type ModerationResult struct {
	Flagged    bool
	Categories map[string]bool
}

// Completer generates an assistant reply from a prompt and history.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Moderator classifies content for safety.
type Moderator interface {
	Moderate(ctx context.Context, text string) (*ModerationResult, error)
}

// Client implements Completer, Embedder, and Moderator against the OpenAI
// API.
type Client struct {
	api             *openai.Client
	chatModel       string
	embeddingModel  string
	moderationModel string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		api:             openai.NewClient(cfg.OpenAIAPIKey),
		chatModel:       cfg.ChatModel,
		embeddingModel:  cfg.EmbeddingModel,
		moderationModel: cfg.ModerationModel,
	}
}

func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: 0.7,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("create embedding: empty response")
	}

	return resp.Data[0].Embedding, nil
}

func (c *Client) Moderate(ctx context.Context, text string) (*ModerationResult, error) {
	resp, err := c.api.Moderations(ctx, openai.ModerationRequest{
		Model: c.moderationModel,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("moderation: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("moderation: empty response")
	}

	r := resp.Results[0]
	categories := map[string]bool{
		"sexual":                 r.Categories.Sexual,
		"sexual/minors":          r.Categories.SexualMinors,
		"hate":                   r.Categories.Hate,
		"hate/threatening":       r.Categories.HateThreatening,
		"harassment":             r.Categories.Harassment,
		"harassment/threatening": r.Categories.HarassmentThreatening,
		"self-harm":              r.Categories.SelfHarm,
		"self-harm/intent":       r.Categories.SelfHarmIntent,
		"self-harm/instructions": r.Categories.SelfHarmInstructions,
		"violence":               r.Categories.Violence,
		"violence/graphic":       r.Categories.ViolenceGraphic,
	}

	return &ModerationResult{
		Flagged:    r.Flagged,
		Categories: categories,
	}, nil
}
