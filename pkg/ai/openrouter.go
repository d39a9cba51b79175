package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/appboardguru/boardguru/pkg/apperr"
)

// DefaultOpenRouterURL is the OpenRouter API base
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider calls the OpenAI-compatible OpenRouter API
type OpenRouterProvider struct {
	BaseURL    string
	APIKey     string
	Model      string
	Referer    string
	Title      string
	HTTPClient *http.Client
}

func NewOpenRouterProvider(apiKey, model string) *OpenRouterProvider {
	return &OpenRouterProvider{
		BaseURL:    DefaultOpenRouterURL,
		APIKey:     apiKey,
		Model:      model,
		Referer:    "https://boardguru.ai",
		Title:      "BoardGuru",
		HTTPClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

func (p *OpenRouterProvider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	body := chatRequest{
		Model:       p.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Completion{}, apperr.Internal(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.BaseURL, "/")+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return Completion{}, apperr.Internal(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	if p.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", p.Referer)
	}
	if p.Title != "" {
		httpReq.Header.Set("X-Title", p.Title)
	}

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Completion{}, apperr.New(apperr.CodeNetwork, "failed to reach openrouter").Wrap(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Completion{}, apperr.New(apperr.CodeNetwork, "failed to read openrouter response").Wrap(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Completion{}, statusError("openrouter", resp.StatusCode, resp.Header.Get("Retry-After"), string(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Completion{}, apperr.Unavailable("openrouter returned an unreadable response", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return Completion{}, apperr.Unavailable("openrouter returned no completion", fmt.Errorf("empty choices"))
	}

	return Completion{
		Text:         out.Choices[0].Message.Content,
		Model:        out.Model,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
	}, nil
}
