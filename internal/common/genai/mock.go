package genai

import (
	"context"
	"sync"
)

// DefaultMockResponse is a well-formed chart answer for local runs without an API key.
const DefaultMockResponse = `{"note":"Resident resting in bed, call light within reach. No distress observed.","feedback":"💬 Feedback: Add the time of observation and any vital signs taken."}`

// MockClient returns canned text and records the prompts it receives.
type MockClient struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []Prompt
}

func NewMockClient(response string) *MockClient {
	if response == "" {
		response = DefaultMockResponse
	}
	return &MockClient{response: response}
}

// NewFailingMockClient always returns err.
func NewFailingMockClient(err error) *MockClient {
	return &MockClient{err: err}
}

func (m *MockClient) Name() string {
	return "mock"
}

func (m *MockClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	if err := ctx.Err(); err != nil {
		return "", classify(err)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// Prompts returns every prompt received so far.
func (m *MockClient) Prompts() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Prompt(nil), m.prompts...)
}
