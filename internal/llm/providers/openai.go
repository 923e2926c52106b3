package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements the Provider interface for OpenAI's chat
// completions API and every OpenAI-compatible endpoint (DeepSeek,
// DashScope, self-hosted gateways) selected via BaseURL.
type OpenAIProvider struct {
	config     Config
	httpClient *http.Client
}

// openAIMessage represents a message in the chat format
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIRequest represents a chat completions request
type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

// openAIResponse represents a chat completions response
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a new instance of the OpenAI-compatible provider
func NewOpenAIProvider(config Config) *OpenAIProvider {
	config = config.withDefaults()
	if config.BaseURL == "" {
		config.BaseURL = defaultOpenAIBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &OpenAIProvider{
		config: config,
		httpClient: &http.Client{
			// Per-attempt timeout; retries restart the clock.
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Complete implements the Provider interface for OpenAI-compatible endpoints
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (ChatResult, error) {
	if p.config.APIKey == "" {
		return ChatResult{}, errortypes.AuthError(errors.New("api key is empty"), "openai api key not provided")
	}

	reqBody := openAIRequest{
		Model:       p.config.Model,
		Temperature: p.config.Temperature,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
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
		p.config.BaseURL+"/chat/completions",
		bytes.NewReader(reqJSON),
	)
	if err != nil {
		return ChatResult{}, errortypes.ValidationError(err, "error creating request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ChatResult{}, errortypes.ConnectionError(err, "error sending request to openai api")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatResult{}, errortypes.ConnectionError(err, "error reading response body")
	}

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return ChatResult{}, err
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return ChatResult{}, errortypes.APIError(err, "error unmarshaling response")
	}

	if parsed.Error != nil {
		return ChatResult{}, errortypes.APIError(
			fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message),
			"openai api error")
	}

	if len(parsed.Choices) == 0 {
		return ChatResult{}, errortypes.EmptyResponseError("openai response carried no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return ChatResult{}, errortypes.EmptyResponseError("openai response carried no text")
	}

	return ChatResult{
		Content:     content,
		TotalTokens: parsed.Usage.TotalTokens,
	}, nil
}

// classifyStatus maps HTTP failure statuses onto the error taxonomy:
// credential rejections are terminal, everything else is transient.
func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errortypes.AuthError(
			fmt.Errorf("status %d: %s", status, trimBody(body)),
			"authentication failed, check api key")
	case status == http.StatusTooManyRequests:
		return errortypes.RateLimitError(
			fmt.Errorf("status %d: %s", status, trimBody(body)),
			"rate limit rejected the request")
	case status >= http.StatusBadRequest:
		return errortypes.APIError(
			fmt.Errorf("status %d: %s", status, trimBody(body)),
			"upstream api error")
	default:
		return nil
	}
}

// trimBody keeps error messages short enough for logs.
func trimBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
