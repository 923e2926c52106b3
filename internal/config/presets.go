package config

// ProviderOthers names the manual preset where the user supplies an
// OpenAI-compatible endpoint themselves.
const ProviderOthers = "others"

// SupportedProviders lists the presets offered during setup, in display
// order.
var SupportedProviders = []string{"openai", "deepseek", "dashscope", "anthropic", ProviderOthers}

// Preset carries the defaults associated with a known provider.
type Preset struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
}

var presets = map[string]Preset{
	"openai": {
		BaseURL:   "https://api.openai.com/v1",
		Model:     "gpt-4o-mini",
		APIKeyEnv: "OPENAI_API_KEY",
	},
	"deepseek": {
		BaseURL:   "https://api.deepseek.com/v1",
		Model:     "deepseek-chat",
		APIKeyEnv: "DEEPSEEK_API_KEY",
	},
	"dashscope": {
		BaseURL:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:     "qwen-plus",
		APIKeyEnv: "DASHSCOPE_API_KEY",
	},
	"anthropic": {
		BaseURL:   "https://api.anthropic.com",
		Model:     "claude-sonnet-4-5",
		APIKeyEnv: "ANTHROPIC_API_KEY",
	},
	ProviderOthers: {
		APIKeyEnv: "PAPERREADER_API_KEY",
	},
}

// ProviderPreset returns the preset for name, falling back to the
// manual preset for unknown providers.
func ProviderPreset(name string) Preset {
	if p, ok := presets[name]; ok {
		return p
	}
	return presets[ProviderOthers]
}

// TransportProvider maps a configured provider to the wire protocol its
// endpoint speaks. Anthropic uses its native messages API; everything
// else is OpenAI-compatible chat completions.
func TransportProvider(name string) string {
	if name == "anthropic" {
		return "anthropic"
	}
	return "openai"
}
