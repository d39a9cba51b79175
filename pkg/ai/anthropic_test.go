package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
)

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"system"`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "The board approved the budget."}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 21, "output_tokens": 7}
		}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider("sk-ant-test", "", option.WithBaseURL(srv.URL+"/"))
	out, err := p.Complete(context.Background(), CompletionRequest{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "what happened?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "The board approved the budget.", out.Text)
	assert.Equal(t, 21, out.InputTokens)
	assert.Equal(t, 7, out.OutputTokens)
}

func TestAnthropicServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider("sk-ant-test", "claude-sonnet-4-20250514", option.WithBaseURL(srv.URL+"/"))
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeServiceUnavailable, apperr.CodeOf(err))
}
