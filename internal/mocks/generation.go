package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/agro-api/internal/generation"
)

// TextResponse builds a single-candidate response with the given text and a
// STOP finish reason.
func TextResponse(text string) *generation.Response {
	return &generation.Response{
		Candidates: []*generation.Candidate{{
			Content:      &generation.Content{Parts: []*generation.Part{{Text: text}}},
			FinishReason: generation.FinishReasonStop,
		}},
	}
}

// BlockedResponse builds a response with no text and a SAFETY finish reason.
func BlockedResponse() *generation.Response {
	return &generation.Response{
		Candidates: []*generation.Candidate{{
			Content:      &generation.Content{},
			FinishReason: generation.FinishReasonSafety,
		}},
	}
}

// MockModel implements generation.Model for testing
type MockModel struct {
	ModelName string

	// GenerateFn allows test cases to mock the Generate behavior
	GenerateFn func(ctx context.Context, prompt string, params generation.Params) (*generation.Response, error)

	// Default response values, used when GenerateFn is nil
	Response *generation.Response
	Err      error

	// Call tracking for verification
	GenerateCalls struct {
		mu      sync.Mutex
		Count   int
		Prompts []string
		Params  []generation.Params
	}
}

// Name implements the generation.Model interface
func (m *MockModel) Name() string {
	return m.ModelName
}

// Generate implements the generation.Model interface
func (m *MockModel) Generate(
	ctx context.Context,
	prompt string,
	params generation.Params,
) (*generation.Response, error) {
	m.GenerateCalls.mu.Lock()
	m.GenerateCalls.Count++
	m.GenerateCalls.Prompts = append(m.GenerateCalls.Prompts, prompt)
	m.GenerateCalls.Params = append(m.GenerateCalls.Params, params)
	m.GenerateCalls.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, prompt, params)
	}
	if m.Response == nil && m.Err == nil {
		return TextResponse("respuesta de " + m.ModelName), nil
	}
	return m.Response, m.Err
}

// CallCount returns the number of Generate calls.
func (m *MockModel) CallCount() int {
	m.GenerateCalls.mu.Lock()
	defer m.GenerateCalls.mu.Unlock()
	return m.GenerateCalls.Count
}

// Prompts returns a copy of the prompts passed to Generate.
func (m *MockModel) Prompts() []string {
	m.GenerateCalls.mu.Lock()
	defer m.GenerateCalls.mu.Unlock()
	return append([]string(nil), m.GenerateCalls.Prompts...)
}

// Params returns a copy of the params passed to Generate.
func (m *MockModel) Params() []generation.Params {
	m.GenerateCalls.mu.Lock()
	defer m.GenerateCalls.mu.Unlock()
	return append([]generation.Params(nil), m.GenerateCalls.Params...)
}

// MockBackend implements generation.Backend for testing. Open hands out one
// MockModel per name, created on first use; program it through Model.
type MockBackend struct {
	// Available is returned by ListModels together with ListErr.
	Available []string
	ListErr   error

	// OpenErrs makes Open fail for the given model names.
	OpenErrs map[string]error

	mu     sync.Mutex
	models map[string]*MockModel

	// Call tracking for verification
	ListCalls          int
	OpenCalls          []string
	SystemInstructions []string
}

// NewMockBackend creates a MockBackend on which every model opens.
func NewMockBackend() *MockBackend {
	return &MockBackend{OpenErrs: map[string]error{}}
}

// ListModels implements the generation.Backend interface
func (b *MockBackend) ListModels(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ListCalls++
	return b.Available, b.ListErr
}

// Open implements the generation.Backend interface
func (b *MockBackend) Open(ctx context.Context, name, systemInstruction string) (generation.Model, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.OpenCalls = append(b.OpenCalls, name)
	b.SystemInstructions = append(b.SystemInstructions, systemInstruction)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.OpenErrs[name]; err != nil {
		return nil, err
	}
	return b.modelLocked(name), nil
}

// Model returns the MockModel for name, creating it if needed.
func (b *MockBackend) Model(name string) *MockModel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modelLocked(name)
}

func (b *MockBackend) modelLocked(name string) *MockModel {
	if b.models == nil {
		b.models = map[string]*MockModel{}
	}
	m, ok := b.models[name]
	if !ok {
		m = &MockModel{ModelName: name}
		b.models[name] = m
	}
	return m
}

// Opened returns a copy of the model names passed to Open.
func (b *MockBackend) Opened() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.OpenCalls...)
}

// Touched reports whether ListModels or Open was ever called.
func (b *MockBackend) Touched() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ListCalls > 0 || len(b.OpenCalls) > 0
}

// TotalGenerateCalls sums Generate calls across every model handed out.
func (b *MockBackend) TotalGenerateCalls() int {
	b.mu.Lock()
	models := make([]*MockModel, 0, len(b.models))
	for _, m := range b.models {
		models = append(models, m)
	}
	b.mu.Unlock()

	total := 0
	for _, m := range models {
		total += m.CallCount()
	}
	return total
}
