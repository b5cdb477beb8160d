package llm

import (
	"context"
	"sync"
)

// MockCompleter is a Completer for tests. CompleteFunc controls the reply;
// when nil, Content is returned verbatim.
type MockCompleter struct {
	CompleteFunc func(ctx context.Context, req Request) (*Response, error)
	Content      string
	ModelName    string

	mu          sync.Mutex
	calls       int
	lastRequest Request
}

func NewMockCompleter(content string) *MockCompleter {
	return &MockCompleter{Content: content, ModelName: "mock-model"}
}

func (m *MockCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls++
	m.lastRequest = req
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &Response{
		Content:          m.Content,
		Model:            m.Model(),
		PromptTokens:     len(req.Prompt) / 4,
		CompletionTokens: len(m.Content) / 4,
		TotalTokens:      len(req.Prompt)/4 + len(m.Content)/4,
	}, nil
}

func (m *MockCompleter) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockCompleter) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}
