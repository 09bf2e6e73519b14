package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	config "orbit/app/configs"
	"orbit/app/pkg/logger"
)

// ErrMissingAPIKey means no credential was found in the configured env var.
var ErrMissingAPIKey = errors.New("llm: api key is not configured")

// Generator produces a model reply for a system prompt and a user turn.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userText string) (string, error)
}

// OpenAIGenerator talks to an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

func NewOpenAIGenerator(cfg config.ModelConfig) (*OpenAIGenerator, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, cfg.APIKeyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       cfg.Name,
		temperature: cfg.Temperature,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userText string) (string, error) {
	start := time.Now()

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userText),
		},
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		logger.Error("[LLM] completion failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("llm: completion returned no choices")
	}

	content := completion.Choices[0].Message.Content
	logger.Info("[LLM] model=%s duration=%s chars=%d", g.model, time.Since(start).Round(time.Millisecond), len(content))
	return content, nil
}
