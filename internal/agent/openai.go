package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI is a chat-completions responder for any OpenAI-compatible endpoint.
// It keeps the per-player chat history for the duration of one game so the
// model sees its own earlier statements, the way a player remembers theirs.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64

	mu      sync.Mutex
	history []openai.ChatCompletionMessageParamUnion
}

// NewOpenAI creates an LLM responder from config and a resolved API key.
func NewOpenAI(cfg Config, apiKey string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Respond sends the prompt with the accumulated history and records both
// sides of the exchange.
func (o *OpenAI) Respond(ctx context.Context, prompt string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.history = append(o.history, openai.UserMessage(prompt))
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    o.history,
		Temperature: openai.Float(o.temperature),
		MaxTokens:   openai.Int(o.maxTokens),
	})
	if err != nil {
		// Drop the unanswered prompt so a retried phase is not double-counted.
		o.history = o.history[:len(o.history)-1]
		return "", err
	}
	if len(completion.Choices) == 0 {
		o.history = o.history[:len(o.history)-1]
		return "", errors.New("empty completion")
	}
	content := completion.Choices[0].Message.Content
	o.history = append(o.history, openai.AssistantMessage(content))
	return content, nil
}

// Reset clears the chat history, for reusing the responder across games.
func (o *OpenAI) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history = nil
}
