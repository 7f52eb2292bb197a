package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/generation"
	"github.com/phrazzld/agro-api/internal/service/advisor"
)

// MockAdvisor implements advisor.Service for testing
type MockAdvisor struct {
	// AskFn allows test cases to mock the Ask behavior
	AskFn func(ctx context.Context, q domain.Query) (*domain.ModelAnswer, error)

	// StatusFn allows test cases to mock the Status behavior
	StatusFn func() advisor.Status

	mu      sync.Mutex
	queries []domain.Query
}

var _ advisor.Service = (*MockAdvisor)(nil)

// Ask implements advisor.Service. Without AskFn it answers with a fixed text.
func (m *MockAdvisor) Ask(ctx context.Context, q domain.Query) (*domain.ModelAnswer, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.AskFn != nil {
		return m.AskFn(ctx, q)
	}
	return &domain.ModelAnswer{Answer: "respuesta simulada", Model: "mock-model"}, nil
}

// Status implements advisor.Service
func (m *MockAdvisor) Status() advisor.Status {
	if m.StatusFn != nil {
		return m.StatusFn()
	}
	return advisor.Status{Mode: generation.ModeReady, Model: "mock-model"}
}

// Queries returns a copy of the queries passed to Ask.
func (m *MockAdvisor) Queries() []domain.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Query(nil), m.queries...)
}
