package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Maxwell0339/paper-cli/internal/config"
	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

// runSetupWizard walks the user through first-time configuration and
// writes the result to path.
func runSetupWizard(path string) error {
	fmt.Printf("First-time setup: creating config at %s\n", path)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Select provider:")
	for i, name := range config.SupportedProviders {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
	idx := promptInt(reader, "provider index", 1)
	if idx < 1 || idx > len(config.SupportedProviders) {
		idx = 1
	}
	provider := config.SupportedProviders[idx-1]

	providerName := ""
	if provider == config.ProviderOthers {
		providerName = promptString(reader, "provider_name (manual)", "")
		if providerName == "" {
			return errortypes.ValidationError(nil, "provider_name is required when provider=others")
		}
	}

	preset := config.ProviderPreset(provider)

	cfg := config.NewConfig()
	cfg.Provider = provider
	cfg.ProviderName = providerName

	defaultBaseURL := preset.BaseURL
	if defaultBaseURL == "" {
		defaultBaseURL = config.DefaultBaseURL
	}
	defaultModel := preset.Model
	if defaultModel == "" {
		defaultModel = config.DefaultModel
	}

	cfg.BaseURL = promptString(reader, "base_url", defaultBaseURL)
	fmt.Printf("Tip: you can also set the API key via env %s or PAPERREADER_API_KEY\n", preset.APIKeyEnv)
	cfg.APIKey = promptString(reader, "api_key", "")
	cfg.Model = promptString(reader, "model", defaultModel)
	cfg.SystemPrompt = promptString(reader, "system_prompt", config.DefaultSystemPrompt)
	cfg.MaxChars = promptInt(reader, "max_chars", config.DefaultMaxChars)
	cfg.ChunkChars = promptInt(reader, "chunk_chars", config.DefaultChunkChars)
	cfg.Recursive = promptBool(reader, "recursive scan?", true)

	if err := cfg.SaveToFile(path); err != nil {
		return err
	}
	fmt.Println("Config saved.")
	return nil
}

func promptString(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptInt(reader *bufio.Reader, label string, def int) int {
	raw := promptString(reader, label, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func promptBool(reader *bufio.Reader, label string, def bool) bool {
	defStr := "y"
	if !def {
		defStr = "n"
	}
	raw := strings.ToLower(promptString(reader, label+" (y/n)", defStr))
	switch raw {
	case "y", "yes", "true":
		return true
	case "n", "no", "false":
		return false
	default:
		return def
	}
}
