package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini-2024-07-18",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"entities\": []}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(Config{Model: "gpt-4o-mini", BaseURL: server.URL + "/v1/", MaxTokens: 512}, "sk-test", zap.NewNop())
	resp, err := client.Complete(context.Background(), Request{
		System:   "extract entities",
		Prompt:   "Marcel Ramet married Jeanne Dubois.",
		JSONMode: true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"entities": []}`, resp.Content)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 7, resp.CompletionTokens)
	assert.Equal(t, 19, resp.TotalTokens)

	assert.Equal(t, "gpt-4o-mini", received["model"])
	assert.EqualValues(t, 512, received["max_tokens"])
	format, ok := received["response_format"].(map[string]any)
	require.True(t, ok, "expected response_format in request")
	assert.Equal(t, "json_object", format["type"])
	messages, ok := received["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestOpenAIClient_ClassifiesHTTPErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  ErrorType
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, ErrorTypeAuth, false},
		{"rate limited", http.StatusTooManyRequests, ErrorTypeRateLimit, true},
		{"unavailable", http.StatusServiceUnavailable, ErrorTypeEndpoint, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "invalid_request_error"}}`))
			}))
			defer server.Close()

			client := NewOpenAIClient(Config{Model: "gpt-4o-mini", BaseURL: server.URL}, "sk-test", zap.NewNop())
			_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
			require.Error(t, err)

			var llmErr *Error
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.wantType, llmErr.Type)
			assert.Equal(t, tt.retryable, llmErr.Retryable)
			assert.Equal(t, tt.status, llmErr.StatusCode)
			assert.Equal(t, "gpt-4o-mini", llmErr.Model)
		})
	}
}

func TestAnthropicClient_Complete(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "{\"entities\": "}, {"type": "text", "text": "[]}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 30, "output_tokens": 9}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(Config{Model: "claude-3-5-sonnet-latest", BaseURL: server.URL + "/v1"}, "sk-ant-test", zap.NewNop())
	resp, err := client.Complete(context.Background(), Request{System: "extract", Prompt: "text", MaxTokens: 1024})
	require.NoError(t, err)

	assert.Equal(t, `{"entities": []}`, resp.Content)
	assert.Equal(t, "claude-3-5-sonnet-20241022", resp.Model)
	assert.Equal(t, 30, resp.PromptTokens)
	assert.Equal(t, 9, resp.CompletionTokens)
	assert.Equal(t, 39, resp.TotalTokens)

	assert.Equal(t, "claude-3-5-sonnet-latest", received["model"])
	assert.Equal(t, "extract", received["system"])
	assert.EqualValues(t, 1024, received["max_tokens"])
}

func TestAnthropicClient_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(Config{Model: "claude-3-5-sonnet-latest", BaseURL: server.URL}, "bad", zap.NewNop())
	_, err := client.Complete(context.Background(), Request{Prompt: "text"})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeAuth, GetErrorType(err))
	assert.False(t, IsRetryable(err))
}

func TestNewFactory(t *testing.T) {
	_, err := NewFactory(Config{Provider: "cohere", Model: "m"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewFactory(Config{Provider: ProviderOpenAI}, zap.NewNop())
	assert.Error(t, err)

	factory, err := NewFactory(Config{Provider: ProviderAnthropic, Model: "claude-3-5-haiku-latest"}, zap.NewNop())
	require.NoError(t, err)
	completer, err := factory("sk-ant")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-latest", completer.Model())
	assert.IsType(t, &AnthropicClient{}, completer)
}
