package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sievemod/sieve/internal/common"
	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/model"
)

// openAIProvider implements the Provider interface for the OpenAI API.
// It handles both text and image content; images are passed by URL through
// the vision-capable chat endpoint.
type openAIProvider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
	available  bool
}

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// NewOpenAIProvider creates the OpenAI classification provider.
func NewOpenAIProvider(cfg config.ProviderConfig) Provider {
	m := cfg.Model
	if m == "" {
		m = "gpt-4o-mini"
	}

	return &openAIProvider{
		apiKey:     cfg.APIKey,
		model:      m,
		endpoint:   openAIEndpoint,
		available:  cfg.Available(),
		httpClient: common.RobustHTTPClient(),
	}
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) Available() bool {
	return p.available
}

func (p *openAIProvider) Supports(kind model.ContentKind) bool {
	return kind == model.KindText || kind == model.KindImage
}

// Classify sends a classification request to OpenAI.
func (p *openAIProvider) Classify(ctx context.Context, content string, kind model.ContentKind) (*model.Classification, error) {
	var userContent any
	switch kind {
	case model.KindImage:
		userContent = []map[string]any{
			{"type": "text", "text": "Classify the content of this image."},
			{"type": "image_url", "image_url": map[string]string{"url": content}},
		}
	default:
		userContent = content
	}

	requestBody := map[string]any{
		"model": p.model,
		"messages": []map[string]any{
			{"role": "system", "content": moderationSystemPrompt},
			{"role": "user", "content": userContent},
		},
		"temperature": 0,
		"max_tokens":  300,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	classification, err := parseClassification(response.Choices[0].Message.Content, p.Name())
	if err != nil {
		return nil, err
	}
	classification.RawResponse = json.RawMessage(body)
	return classification, nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
