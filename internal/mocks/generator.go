package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-engine/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateFn overrides all other behavior when set
	GenerateFn func(ctx context.Context, req generation.Request) (string, error)

	// Responses and Errors are looked up by task type
	Responses map[generation.TaskType]string
	Errors    map[generation.TaskType]error

	// Default response values
	Output string
	Err    error

	mu       sync.Mutex
	requests []generation.Request
}

var _ generation.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a MockGenerator answering per task type.
func NewMockGenerator(responses map[generation.TaskType]string) *MockGenerator {
	return &MockGenerator{Responses: responses}
}

// NewMockGeneratorWithError creates a MockGenerator that always fails with err
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}

// Generate implements generation.Generator
func (m *MockGenerator) Generate(ctx context.Context, req generation.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	if err, ok := m.Errors[req.TaskType]; ok {
		return "", err
	}
	if out, ok := m.Responses[req.TaskType]; ok {
		return out, nil
	}
	return m.Output, m.Err
}

// Requests returns a copy of every request received so far
func (m *MockGenerator) Requests() []generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Request(nil), m.requests...)
}

// Calls counts the requests of the given task type
func (m *MockGenerator) Calls(task generation.TaskType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.TaskType == task {
			n++
		}
	}
	return n
}

// TotalCalls counts all requests
func (m *MockGenerator) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
