// ABOUTME: Tests for the OpenAI Chat Completions adapter against a mock HTTP server.
// ABOUTME: Validates request translation, response parsing, error-status classification, and retry integration.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func noRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1.0}
}

func completionJSON(text string) string {
	return `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "o3-mini",
		"choices": [
			{"index": 0, "message": {"role": "assistant", "content": ` + jsonString(text) + `}, "finish_reason": "stop"}
		]
	}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestOpenAIChatRequestTranslation(t *testing.T) {
	var receivedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading body: %v", err)
			return
		}
		if err := json.Unmarshal(body, &receivedBody); err != nil {
			t.Errorf("unmarshalling body: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("Hello back!")))
	}))
	defer server.Close()

	chat := NewOpenAIChat("sk-test", "o3-mini", WithBaseURL(server.URL), WithRetryPolicy(noRetry()))

	text, err := chat.Complete(context.Background(), Request{
		Model: "o3-mini",
		Messages: []Message{
			SystemMessage("You are terse."),
			DeveloperMessage("Plan carefully."),
			UserMessage("Hello"),
			{Role: RoleAssistant, Content: "Hi there"},
		},
		ReasoningEffort: "high",
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "Hello back!" {
		t.Errorf("text = %q, want %q", text, "Hello back!")
	}

	if model, ok := receivedBody["model"].(string); !ok || model != "o3-mini" {
		t.Errorf("model = %v, want %q", receivedBody["model"], "o3-mini")
	}
	if effort, ok := receivedBody["reasoning_effort"].(string); !ok || effort != "high" {
		t.Errorf("reasoning_effort = %v, want %q", receivedBody["reasoning_effort"], "high")
	}

	messages, ok := receivedBody["messages"].([]any)
	if !ok {
		t.Fatalf("messages is not an array: %T", receivedBody["messages"])
	}
	if len(messages) != 4 {
		t.Fatalf("messages has %d items, want 4", len(messages))
	}

	wantRoles := []string{"system", "developer", "user", "assistant"}
	wantContent := []string{"You are terse.", "Plan carefully.", "Hello", "Hi there"}
	for i, raw := range messages {
		msg := raw.(map[string]any)
		if msg["role"] != wantRoles[i] {
			t.Errorf("messages[%d].role = %v, want %q", i, msg["role"], wantRoles[i])
		}
		if msg["content"] != wantContent[i] {
			t.Errorf("messages[%d].content = %v, want %q", i, msg["content"], wantContent[i])
		}
	}
}

func TestOpenAIChatDefaultModel(t *testing.T) {
	var receivedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("ok")))
	}))
	defer server.Close()

	chat := NewOpenAIChat("sk-test", "gpt-4o", WithBaseURL(server.URL), WithRetryPolicy(noRetry()))

	if _, err := chat.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}}); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if receivedBody["model"] != "gpt-4o" {
		t.Errorf("model = %v, want the constructor default", receivedBody["model"])
	}
}

func TestOpenAIChatReasoningEffortNotSetWhenEmpty(t *testing.T) {
	var receivedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("ok")))
	}))
	defer server.Close()

	chat := NewOpenAIChat("sk-test", "gpt-4o", WithBaseURL(server.URL), WithRetryPolicy(noRetry()))

	if _, err := chat.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}}); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if _, present := receivedBody["reasoning_effort"]; present {
		t.Error("reasoning_effort should be omitted when the request does not set it")
	}
}

func TestOpenAIChatErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		wantRetryable bool
	}{
		{"400 bad request", http.StatusBadRequest, false},
		{"401 unauthorized", http.StatusUnauthorized, false},
		{"404 not found", http.StatusNotFound, false},
		{"429 rate limited", http.StatusTooManyRequests, true},
		{"500 server error", http.StatusInternalServerError, true},
		{"503 unavailable", http.StatusServiceUnavailable, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"api_error"}}`))
			}))
			defer server.Close()

			chat := NewOpenAIChat("sk-test", "gpt-4o", WithBaseURL(server.URL), WithRetryPolicy(noRetry()))

			_, err := chat.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T, want *ProviderError", err)
			}
			if pe.StatusCode != tc.statusCode {
				t.Errorf("StatusCode = %d, want %d", pe.StatusCode, tc.statusCode)
			}
			if pe.IsRetryable() != tc.wantRetryable {
				t.Errorf("IsRetryable() = %v, want %v", pe.IsRetryable(), tc.wantRetryable)
			}
			if pe.Provider != "openai" {
				t.Errorf("Provider = %q, want %q", pe.Provider, "openai")
			}
		})
	}
}

func TestOpenAIChatRetriesServerError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"transient","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(completionJSON("recovered")))
	}))
	defer server.Close()

	policy := RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1.0}
	chat := NewOpenAIChat("sk-test", "gpt-4o", WithBaseURL(server.URL), WithRetryPolicy(policy))

	text, err := chat.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "recovered" {
		t.Errorf("text = %q, want %q", text, "recovered")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server received %d requests, want 2", got)
	}
}

func TestOpenAIChatNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"x","choices":[]}`))
	}))
	defer server.Close()

	chat := NewOpenAIChat("sk-test", "gpt-4o", WithBaseURL(server.URL), WithRetryPolicy(noRetry()))

	_, err := chat.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if pe.IsRetryable() {
		t.Error("empty-choices error should not be retryable")
	}
}
