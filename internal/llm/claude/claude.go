package claude

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"mtf-trading-bot/internal/api"
	"mtf-trading-bot/internal/llm"
	"mtf-trading-bot/internal/store"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"
)

const (
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	defaultModel    = "claude-3-5-sonnet-20241022"
	apiVersion      = "2023-06-01"
)

// Writer generates plan rationales with the Anthropic Messages API.
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

// NewWriter reads CLAUDE_API_KEY (or ANTHROPIC_API_KEY) and an optional
// CLAUDE_API_ENDPOINT for proxies.
func NewWriter(cfg *store.Config) *Writer {
	endpoint := defaultEndpoint
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	key := os.Getenv("CLAUDE_API_KEY")
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
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
		apiKey:      key,
		model:       model,
		system:      system,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
		maxChars:    cfg.LLM.MaxChars,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (w *Writer) WriteRationale(ctx context.Context, facts types.RationaleFacts) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	if w.apiKey == "" {
		return "", fmt.Errorf("CLAUDE_API_KEY: %w", llm.ErrMissingAPIKey)
	}

	body := messagesRequest{
		Model:       w.model,
		System:      w.system,
		Messages:    []message{{Role: "user", Content: llm.BuildRationalePrompt(facts)}},
		MaxTokens:   w.maxTokens,
		Temperature: w.temperature,
	}
	resp, err := w.client.POST(ctx, w.endpoint, body, map[string]string{
		"x-api-key":         w.apiKey,
		"anthropic-version": apiVersion,
	})
	if err != nil {
		return "", fmt.Errorf("claude request: %w", err)
	}

	var out messagesResponse
	if err := resp.ParseJSON(&out); err != nil {
		return "", err
	}
	var parts []string
	for _, c := range out.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return llm.Sanitize(strings.Join(parts, " "), w.maxChars)
}

// Configured reports whether an API key is available.
func (w *Writer) Configured() bool { return w.apiKey != "" }
