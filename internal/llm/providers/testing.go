package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockResponseConfig holds configuration for mock API responses
type MockResponseConfig struct {
	StatusCode   int
	ResponseBody interface{}
	Headers      map[string]string
}

// MockServer creates a test server that returns the configured response
func MockServer(t *testing.T, config MockResponseConfig) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range config.Headers {
			w.Header().Set(k, v)
		}
		if _, exists := config.Headers["Content-Type"]; !exists {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(config.StatusCode)

		if config.ResponseBody != nil {
			var respBytes []byte
			var err error

			switch body := config.ResponseBody.(type) {
			case string:
				respBytes = []byte(body)
			case []byte:
				respBytes = body
			default:
				respBytes, err = json.Marshal(body)
				if err != nil {
					t.Fatalf("Failed to marshal mock response: %v", err)
				}
			}

			if _, err := w.Write(respBytes); err != nil {
				t.Fatalf("Failed to write response body: %v", err)
			}
		}
	}))
}

// ScriptedCall records a single result a ScriptedProvider should return.
type ScriptedCall struct {
	Result ChatResult
	Err    error
}

// ScriptedProvider is a Provider implementation for testing that returns
// a fixed sequence of results. Once the script runs out, the last entry
// repeats. It records every prompt pair it receives.
type ScriptedProvider struct {
	mu      sync.Mutex
	name    string
	script  []ScriptedCall
	calls   int
	systems []string
	users   []string
}

// NewScriptedProvider creates a ScriptedProvider running the given script.
func NewScriptedProvider(name string, script ...ScriptedCall) *ScriptedProvider {
	return &ScriptedProvider{name: name, script: script}
}

// Name returns the provider name
func (p *ScriptedProvider) Name() string {
	return p.name
}

// Complete returns the next scripted result and records the prompts.
func (p *ScriptedProvider) Complete(_ context.Context, systemPrompt, userPrompt string) (ChatResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	p.calls++
	p.systems = append(p.systems, systemPrompt)
	p.users = append(p.users, userPrompt)

	if len(p.script) == 0 {
		return ChatResult{}, nil
	}
	call := p.script[idx]
	return call.Result, call.Err
}

// Calls returns the number of times Complete has been invoked.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// UserPrompts returns a copy of the user prompts received so far.
func (p *ScriptedProvider) UserPrompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.users))
	copy(out, p.users)
	return out
}

// SystemPrompts returns a copy of the system prompts received so far.
func (p *ScriptedProvider) SystemPrompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.systems))
	copy(out, p.systems)
	return out
}
