package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
	"github.com/mdekker/sonarlens/internal/adapter/llm/openai"
)

func fastRetry() httpclient.RetryConfig {
	return httpclient.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func completionBody(content string) string {
	return `{
		"id": "chatcmpl-1",
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ` + jsonString(content) + `}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 50, "completion_tokens": 80, "total_tokens": 130}
	}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestComplete_OpenAIStyle(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("api-key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(completionBody("  Explained issue.\n")))
	}))
	defer server.Close()

	client := openai.NewClient(openai.Settings{
		Endpoint:  server.URL,
		APIKey:    "sk-test",
		Model:     "gpt-4o-mini",
		MaxTokens: 200,
	})

	content, err := client.Complete(context.Background(), "explain this finding")

	require.NoError(t, err)
	assert.Equal(t, "  Explained issue.\n", content, "client returns content unmodified")

	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Equal(t, 200, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "explain this finding", gotReq.Messages[0].Content)
}

func TestComplete_AzureStyle(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/my-gpt4o/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(completionBody("azure says hi")))
	}))
	defer server.Close()

	client := openai.NewClient(openai.Settings{
		Endpoint:   server.URL,
		APIKey:     "azure-key",
		Deployment: "my-gpt4o",
		APIVersion: "2024-06-01",
		MaxTokens:  200,
	})

	content, err := client.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "azure says hi", content)
	assert.Empty(t, gotReq.Model, "deployment in the URL selects the model")
}

func TestComplete_QuotaFailureNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := openai.NewClient(openai.Settings{Endpoint: server.URL, APIKey: "bad", Model: "gpt-4o-mini"})
	client.SetRetryConfig(fastRetry())

	_, err := client.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var apiErr *httpclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, httpclient.KindAuthentication, apiErr.Kind)
	assert.Contains(t, apiErr.Message, "Incorrect API key")
}

func TestComplete_RateLimitRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached"}}`))
			return
		}
		_, _ = w.Write([]byte(completionBody("recovered")))
	}))
	defer server.Close()

	client := openai.NewClient(openai.Settings{Endpoint: server.URL, APIKey: "sk", Model: "gpt-4o-mini"})
	client.SetRetryConfig(fastRetry())

	content, err := client.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, 2, calls)
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "choices": []}`))
	}))
	defer server.Close()

	client := openai.NewClient(openai.Settings{Endpoint: server.URL, APIKey: "sk", Model: "gpt-4o-mini"})

	_, err := client.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
