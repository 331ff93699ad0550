package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sievemod/sieve/internal/model"
)

// MockClassifier is a scripted classifier for tests.
type MockClassifier struct {
	mu      sync.Mutex
	Result  *model.Classification
	Err     error
	Calls   int
	LastKey string
}

// Classify returns the scripted result or error.
func (m *MockClassifier) Classify(_ context.Context, content string, _ model.ContentKind) (*model.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastKey = content
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		c := *m.Result
		return &c, nil
	}
	raw, _ := json.Marshal(map[string]any{"mock": true})
	return &model.Classification{
		Label:       model.LabelSafe,
		Confidence:  0.99,
		Reasoning:   "no harmful content detected",
		RawResponse: raw,
		Provider:    "mock",
	}, nil
}
