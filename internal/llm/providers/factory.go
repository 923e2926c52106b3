package providers

import (
	"fmt"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

// NewProvider returns an initialized provider instance for the given
// provider name. The OpenAI provider also serves compatible endpoints
// (DeepSeek, DashScope and others) through Config.BaseURL.
func NewProvider(name string, config Config) (Provider, error) {
	switch name {
	case ProviderOpenAI, "":
		return NewOpenAIProvider(config), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(config), nil
	default:
		return nil, errortypes.ConfigError(
			fmt.Errorf("unknown provider: %s", name),
			"provider must be one of: openai, anthropic",
		)
	}
}
