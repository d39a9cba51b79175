package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/logging"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func TestOpenRouterComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "https://boardguru.ai", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "BoardGuru", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"anthropic/claude-3.5-sonnet","choices":[{"message":{"role":"assistant","content":"Revenue grew 12%."}}],"usage":{"prompt_tokens":40,"completion_tokens":6}}`)
	}))
	defer srv.Close()

	p := NewOpenRouterProvider("sk-test", "anthropic/claude-3.5-sonnet")
	p.BaseURL = srv.URL + "/api/v1"

	out, err := p.Complete(context.Background(), CompletionRequest{
		System:    "be brief",
		Messages:  []Message{{Role: RoleUser, Content: "summarize"}},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 12%.", out.Text)
	assert.Equal(t, 40, out.InputTokens)
	assert.Equal(t, 6, out.OutputTokens)

	assert.Equal(t, "anthropic/claude-3.5-sonnet", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "be brief"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "summarize"}, got.Messages[1])
}

func TestOpenRouterErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		code        apperr.Code
		recoverable bool
	}{
		{"rate limited", http.StatusTooManyRequests, apperr.CodeRateLimited, false},
		{"server error", http.StatusBadGateway, apperr.CodeServiceUnavailable, true},
		{"bad credentials", http.StatusUnauthorized, apperr.CodeServiceUnavailable, true},
		{"bad request", http.StatusBadRequest, apperr.CodeBusinessRule, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope"}}`)
			}))
			defer srv.Close()

			p := NewOpenRouterProvider("sk-test", "m")
			p.BaseURL = srv.URL

			_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
			assert.Equal(t, tt.recoverable, apperr.IsRecoverable(err))
		})
	}
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	p := NewOpenRouterProvider("sk-test", "m")
	p.BaseURL = srv.URL

	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Equal(t, apperr.CodeServiceUnavailable, apperr.CodeOf(err))
}
