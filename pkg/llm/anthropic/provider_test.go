package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"proposal-intake-be/pkg/llm"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageBody(blocks ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":          "msg_01",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"content":     blocks,
		"stop_reason": "end_turn",
		"usage":       map[string]interface{}{"input_tokens": 10, "output_tokens": 20},
	}
}

func TestChat_Success(t *testing.T) {
	var reqBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody(
			map[string]interface{}{"type": "text", "text": "# Proposal\n"},
			map[string]interface{}{"type": "text", "text": "Body"},
		))
	}))
	defer server.Close()

	p := NewProvider("test-key", "claude-test", server.URL+"/", option.WithMaxRetries(0))
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You write proposals."},
		{Role: llm.RoleUser, Content: "go"},
	})

	require.NoError(t, err)
	assert.Equal(t, "# Proposal\nBody", out)
	assert.Equal(t, "claude-test", reqBody["model"])
	assert.EqualValues(t, defaultMaxTokens, reqBody["max_tokens"])

	system, ok := reqBody["system"].([]interface{})
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "You write proposals.", system[0].(map[string]interface{})["text"])

	messages, ok := reqBody["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, messages, 1)
}

func TestChat_NoTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody())
	}))
	defer server.Close()

	p := NewProvider("k", "claude-test", server.URL+"/", option.WithMaxRetries(0))
	_, err := p.Generate(context.Background(), "prompt", llm.WithMaxTokens(100))

	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}
