// Package providers contains implementations of the remote LLM
// endpoints used for summarization.
package providers

import (
	"context"
	"time"
)

const (
	// Provider constants
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	// Default settings
	DefaultTimeout     = 120 * time.Second
	MinTimeout         = 10 * time.Second
	DefaultTemperature = 0.2
)

// ChatResult is the product of one successful remote call.
type ChatResult struct {
	// Content is the generated text, whitespace-trimmed.
	Content string

	// TotalTokens is the token usage the upstream reported for the
	// call, or 0 when the upstream omits usage reporting.
	TotalTokens int
}

// Provider issues a single summarization request against a remote
// model endpoint. Implementations classify failures into the
// errortypes taxonomy so the retry loop can discriminate transient
// from terminal errors.
//
// Implementations are safe for concurrent use from multiple workers:
// each holds one http.Client, which net/http guarantees safe for
// shared concurrent use. Callers never need external locking.
type Provider interface {
	// Complete sends one (system, user) message pair and returns the
	// generated text with its token usage.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (ChatResult, error)

	// Name returns the provider name
	Name() string
}

// Config holds common configuration for LLM providers
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// withDefaults fills unset fields with the package defaults.
func (c Config) withDefaults() Config {
	if c.Timeout < MinTimeout {
		if c.Timeout <= 0 {
			c.Timeout = DefaultTimeout
		} else {
			c.Timeout = MinTimeout
		}
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}
