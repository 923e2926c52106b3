package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

func TestOpenAIProviderComplete(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusOK,
		ResponseBody: map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  A short summary.  "}},
			},
			"usage": map[string]int{"total_tokens": 42},
		},
	})
	defer server.Close()

	provider := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	})

	result, err := provider.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Content != "A short summary." {
		t.Errorf("Expected trimmed content, got %q", result.Content)
	}
	if result.TotalTokens != 42 {
		t.Errorf("Expected 42 tokens, got %d", result.TotalTokens)
	}
}

func TestOpenAIProviderMissingKey(t *testing.T) {
	provider := NewOpenAIProvider(Config{Model: "gpt-4o-mini"})
	_, err := provider.Complete(context.Background(), "system", "user")
	if !errortypes.IsAuthError(err) {
		t.Errorf("Expected auth error for missing key, got %v", err)
	}
}

func TestOpenAIProviderStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  errortypes.ErrorType
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, errortypes.ErrorTypeAuth, false},
		{"forbidden", http.StatusForbidden, errortypes.ErrorTypeAuth, false},
		{"rate limited", http.StatusTooManyRequests, errortypes.ErrorTypeRateLimit, true},
		{"server error", http.StatusInternalServerError, errortypes.ErrorTypeAPI, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := MockServer(t, MockResponseConfig{
				StatusCode:   tt.status,
				ResponseBody: `{"error": {"message": "nope"}}`,
			})
			defer server.Close()

			provider := NewOpenAIProvider(Config{
				APIKey:  "test-key",
				BaseURL: server.URL,
				Model:   "gpt-4o-mini",
			})

			_, err := provider.Complete(context.Background(), "system", "user")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := errortypes.TypeOf(err); got != tt.wantType {
				t.Errorf("Expected error type %s, got %s", tt.wantType, got)
			}
			if errortypes.IsRetryable(err) != tt.retryable {
				t.Errorf("Expected retryable=%v for status %d", tt.retryable, tt.status)
			}
		})
	}
}

func TestOpenAIProviderEmptyContent(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusOK,
		ResponseBody: map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "   "}},
			},
		},
	})
	defer server.Close()

	provider := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	})

	_, err := provider.Complete(context.Background(), "system", "user")
	if errortypes.TypeOf(err) != errortypes.ErrorTypeEmptyResponse {
		t.Errorf("Expected empty response error, got %v", err)
	}
	if !errortypes.IsRetryable(err) {
		t.Error("Expected empty response to be retryable")
	}
}

func TestAnthropicProviderComplete(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusOK,
		ResponseBody: map[string]interface{}{
			"content": []map[string]string{
				{"type": "text", "text": "First part. "},
				{"type": "text", "text": "Second part."},
			},
			"usage": map[string]int{"input_tokens": 30, "output_tokens": 12},
		},
	})
	defer server.Close()

	provider := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-sonnet-4-5",
	})

	result, err := provider.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Content != "First part. Second part." {
		t.Errorf("Expected joined text blocks, got %q", result.Content)
	}
	if result.TotalTokens != 42 {
		t.Errorf("Expected input+output token sum of 42, got %d", result.TotalTokens)
	}
}

func TestAnthropicProviderEmptyContent(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusOK,
		ResponseBody: map[string]interface{}{
			"content": []map[string]string{},
			"usage":   map[string]int{"input_tokens": 5, "output_tokens": 0},
		},
	})
	defer server.Close()

	provider := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-sonnet-4-5",
	})

	_, err := provider.Complete(context.Background(), "system", "user")
	if errortypes.TypeOf(err) != errortypes.ErrorTypeEmptyResponse {
		t.Errorf("Expected empty response error, got %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	cfg := Config{APIKey: "k", Model: "m"}

	p, err := NewProvider(ProviderOpenAI, cfg)
	if err != nil || p.Name() != ProviderOpenAI {
		t.Errorf("Expected openai provider, got %v, %v", p, err)
	}

	p, err = NewProvider(ProviderAnthropic, cfg)
	if err != nil || p.Name() != ProviderAnthropic {
		t.Errorf("Expected anthropic provider, got %v, %v", p, err)
	}

	if _, err := NewProvider("unsupported", cfg); !errortypes.IsConfigError(err) {
		t.Errorf("Expected config error for unknown provider, got %v", err)
	}
}
