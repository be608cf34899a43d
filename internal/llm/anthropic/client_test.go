package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/llm"
)

func newTestServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-haiku-latest",
  "content": [
    {"type": "text", "text": "{txt:\"PRISMA\",label:\"COMPANY\"}"},
    {"type": "text", "text": "{txt:\"12,50\",label:\"TOTAL\"}\n"}
  ],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 20}
}`

func TestClient_Complete(t *testing.T) {
	var req map[string]any
	srv := newTestServer(t, http.StatusOK, okBody, &req)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "claude-3-5-haiku-latest", MaxTokens: 300}, nil)
	out, err := c.Complete(context.Background(), "Q: words, What are the labels for these texts?")
	require.NoError(t, err)
	assert.Equal(t, `{txt:"PRISMA",label:"COMPANY"}{txt:"12,50",label:"TOTAL"}`, out)

	assert.Equal(t, "claude-3-5-haiku-latest", req["model"])
	assert.EqualValues(t, 300, req["max_tokens"])
	assert.EqualValues(t, 0, req["temperature"])
	system := req["system"].([]any)
	assert.Equal(t, llm.SystemPrompt, system[0].(map[string]any)["text"])
	messages := req["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestClient_Complete_NoText(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id":"msg_2","type":"message","role":"assistant","content":[],"stop_reason":"max_tokens","usage":{"input_tokens":1,"output_tokens":0}}`, nil)
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstream))
}

func TestClient_Complete_HTTPError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`, nil)
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, MaxRetries: 1}, nil)

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, common.CodeCompletion, common.CodeOf(err))
}

func TestConfig_withDefaults(t *testing.T) {
	cfg := Config{APIKey: "k", BaseURL: "http://localhost:8080"}.withDefaults()
	assert.Equal(t, "http://localhost:8080/", cfg.BaseURL)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Model)
	assert.Equal(t, 512, cfg.MaxTokens)
}
