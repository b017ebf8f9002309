package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taleweaver/pkg/schema"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeChatServer(t *testing.T, reply string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIConverseSendsTurns(t *testing.T) {
	var got capturedRequest
	srv := fakeChatServer(t, "Marcus nods.", &got)

	inf := NewOpenAIInferencer(Providers["local"], "test-key", "tiny")
	inf.ChangeBaseURL(srv.URL)

	out, err := inf.Converse(context.Background(), nil, "narrate", []schema.Turn{
		{Role: schema.RoleUser, Content: "hi"},
		{Role: schema.RoleAssistant, Content: "hello"},
		{Role: schema.RoleUser, Content: "order coffee"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Marcus nods.", out)
	assert.Equal(t, "tiny", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "order coffee", got.Messages[3].Content)
}

func TestOpenAIEmptyContent(t *testing.T) {
	var got capturedRequest
	srv := fakeChatServer(t, "", &got)

	inf := NewOpenAIInferencer(Providers["openai"], "k", "")
	inf.ChangeBaseURL(srv.URL)

	_, err := inf.Infer(context.Background(), &openai.ChatCompletionNewParams{}, "s", "u")
	assert.EqualError(t, err, "empty completion content")
	assert.Equal(t, "gpt-4o-mini", got.Model)
}

func TestVerify(t *testing.T) {
	inf := NewOpenAIInferencer(Providers["openai"], "k", "")
	ok, err := inf.Verify(context.Background(), "")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestWantsJSON(t *testing.T) {
	assert.False(t, wantsJSON(nil))
	assert.True(t, wantsJSON(&openai.ChatCompletionNewParams{ResponseFormat: schema.MemoriesResponseFormat()}))
}
