package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"mtf-trading-bot/internal/api"
	"mtf-trading-bot/internal/llm"
	"mtf-trading-bot/internal/store"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4o"
)

// Writer generates plan rationales with the Chat Completions API.
type Writer struct {
	client      *api.Client
	endpoint    string
	apiKey      string
	model       string
	system      string
	maxTokens   int
	temperature float32
	maxChars    int
}

func NewWriter(cfg *store.Config) *Writer {
	endpoint := defaultEndpoint
	if ep := os.Getenv("OPENAI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	model := cfg.LLM.Model
	if model == "" {
		model = defaultModel
	}
	system := cfg.LLM.System
	if system == "" {
		system = llm.SystemPrompt
	}
	return &Writer{
		client:      api.NewClient(api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds+5) * time.Second)),
		endpoint:    endpoint,
		apiKey:      os.Getenv("OPENAI_API_KEY"),
		model:       model,
		system:      system,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
		maxChars:    cfg.LLM.MaxChars,
	}
}

func (w *Writer) WriteRationale(ctx context.Context, facts types.RationaleFacts) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if w.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY: %w", llm.ErrMissingAPIKey)
	}

	body := map[string]any{
		"model": w.model,
		"messages": []map[string]string{
			{"role": "system", "content": w.system},
			{"role": "user", "content": llm.BuildRationalePrompt(facts)},
		},
		"temperature": w.temperature,
		"max_tokens":  w.maxTokens,
	}
	resp, err := w.client.POST(ctx, w.endpoint, body, map[string]string{
		"Authorization": "Bearer " + w.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return llm.Sanitize(r.Choices[0].Message.Content, w.maxChars)
}

// Configured reports whether an API key is available.
func (w *Writer) Configured() bool { return w.apiKey != "" }
