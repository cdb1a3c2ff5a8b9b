package classify

import (
	"context"
	"sync"
)

// MockGenerator is a deterministic Generator for tests. It replies with a
// fixed response or error and records every call.
type MockGenerator struct {
	Response string
	Err      error
	// Block, when set, makes Generate wait for ctx to finish.
	Block bool

	mu    sync.Mutex
	calls []MockGeneratorCall
}

// MockGeneratorCall records one Generate invocation.
type MockGeneratorCall struct {
	Prompt   string
	Document string
}

// NewMockGenerator creates a mock that returns response.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (m *MockGenerator) Generate(ctx context.Context, prompt, document string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockGeneratorCall{Prompt: prompt, Document: document})
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []MockGeneratorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockGeneratorCall, len(m.calls))
	copy(out, m.calls)
	return out
}
