package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sievemod/sieve/internal/model"
)

// parseClassification extracts the normalized classification from a
// provider's text answer. The raw payload is attached by the caller.
func parseClassification(content, provider string) (*model.Classification, error) {
	var jsonResp struct {
		Classification string  `json:"classification"`
		Confidence     float64 `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
	}

	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	label := strings.ToLower(strings.TrimSpace(jsonResp.Classification))
	if label == "" {
		return nil, fmt.Errorf("no classification found in response")
	}

	confidence := jsonResp.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return &model.Classification{
		Label:      label,
		Confidence: confidence,
		Reasoning:  jsonResp.Reasoning,
		Provider:   provider,
	}, nil
}
