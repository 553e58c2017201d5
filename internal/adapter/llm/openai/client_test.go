package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/mshafer/prreview/internal/adapter/llm/http"
)

func fastRetryConfig() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func chatResponse(content string) string {
	resp := ChatCompletionResponse{
		Model: "gpt-4o-mini",
		Choices: []Choice{
			{Message: Message{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
	resp.Usage.PromptTokens = 10
	resp.Usage.CompletionTokens = 5
	resp.Usage.TotalTokens = 15
	data, _ := json.Marshal(resp)
	return string(data)
}

func newTestClient(serverURL string) *HTTPClient {
	c := NewHTTPClient("sk-test", "gpt-4o-mini", nil)
	c.SetBaseURL(serverURL)
	c.SetRetryConfig(fastRetryConfig())
	return c
}

func TestCallSuccess(t *testing.T) {
	var gotReq ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(chatResponse("hello")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Call(context.Background(), []Message{{Role: "user", Content: "hi"}}, CallOptions{
		Temperature: 0.1,
		MaxTokens:   100,
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, 10, resp.TokensIn)
	assert.Equal(t, 5, resp.TokensOut)
	assert.Equal(t, "stop", resp.FinishReason)

	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Equal(t, 100, gotReq.MaxTokens)
	assert.Zero(t, gotReq.MaxCompletionTokens)
}

func TestCallReasoningModelFields(t *testing.T) {
	var gotReq ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(chatResponse("ok")))
	}))
	defer server.Close()

	client := NewHTTPClient("sk-test", "o3-mini", nil)
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig())

	_, err := client.Call(context.Background(), []Message{{Role: "user", Content: "hi"}}, CallOptions{
		Temperature: 0.7,
		MaxTokens:   100,
	})

	require.NoError(t, err)
	assert.Equal(t, 100, gotReq.MaxCompletionTokens)
	assert.Zero(t, gotReq.MaxTokens)
	assert.Zero(t, gotReq.Temperature, "reasoning models reject temperature")
}

func TestCallAuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Call(context.Background(), []Message{{Role: "user", Content: "hi"}}, CallOptions{})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, httpErr.Type)
	assert.Contains(t, httpErr.Message, "Incorrect API key")
	assert.Equal(t, int32(1), calls.Load(), "auth errors must not be retried")
}

func TestCallRateLimitRetriedUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Write([]byte(chatResponse("finally")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Call(context.Background(), []Message{{Role: "user", Content: "hi"}}, CallOptions{})

	require.NoError(t, err)
	assert.Equal(t, "finally", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCallServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Call(context.Background(), []Message{{Role: "user", Content: "hi"}}, CallOptions{})

	require.Error(t, err)
	// Initial attempt plus MaxRetries.
	assert.Equal(t, int32(3), calls.Load())
}

func TestCallNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"gpt-4o-mini","choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Call(context.Background(), []Message{{Role: "user", Content: "hi"}}, CallOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o1-preview"))
	assert.True(t, isReasoningModel("o3-mini"))
	assert.True(t, isReasoningModel("O4-mini"))
	assert.False(t, isReasoningModel("gpt-4o-mini"))
	assert.False(t, isReasoningModel("gpt-4.1"))
}
