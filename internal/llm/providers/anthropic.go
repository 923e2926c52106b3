package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 4096
)

// AnthropicProvider implements the Provider interface for Anthropic's
// messages API.
type AnthropicProvider struct {
	config     Config
	httpClient *http.Client
}

// anthropicRequest represents a messages API request
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse represents a messages API response
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicProvider creates a new instance of the Anthropic provider
func NewAnthropicProvider(config Config) *AnthropicProvider {
	config = config.withDefaults()
	if config.BaseURL == "" {
		config.BaseURL = defaultAnthropicBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &AnthropicProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Complete implements the Provider interface for Anthropic
func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (ChatResult, error) {
	if p.config.APIKey == "" {
		return ChatResult{}, errortypes.AuthError(errors.New("api key is empty"), "anthropic api key not provided")
	}

	reqBody := anthropicRequest{
		Model:       p.config.Model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: p.config.Temperature,
		System:      systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return ChatResult{}, errortypes.ValidationError(err, "error marshaling request")
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.config.BaseURL+"/v1/messages",
		bytes.NewReader(reqJSON),
	)
	if err != nil {
		return ChatResult{}, errortypes.ValidationError(err, "error creating request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ChatResult{}, errortypes.ConnectionError(err, "error sending request to anthropic api")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatResult{}, errortypes.ConnectionError(err, "error reading response body")
	}

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return ChatResult{}, err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return ChatResult{}, errortypes.APIError(err, "error unmarshaling response")
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return ChatResult{}, errortypes.EmptyResponseError("anthropic response carried no text")
	}

	return ChatResult{
		Content:     content,
		TotalTokens: parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
	}, nil
}
