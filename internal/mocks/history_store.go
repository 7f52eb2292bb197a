package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/store"
)

// MockHistoryStore implements store.HistoryStore for testing. Without Fn
// overrides it keeps records in memory, newest last.
type MockHistoryStore struct {
	CreateChatFn          func(ctx context.Context, record *domain.ChatRecord) error
	CreateSensorReadingFn func(ctx context.Context, reading *domain.SensorReading) error
	ListChatsFn           func(ctx context.Context, filter store.ChatFilter) ([]*domain.ChatRecord, error)
	ListSensorReadingsFn  func(ctx context.Context, filter store.SensorFilter) ([]*domain.SensorReading, error)

	mu       sync.Mutex
	chats    []*domain.ChatRecord
	readings []*domain.SensorReading

	// Filters passed to the list methods, for verification
	ChatFilters   []store.ChatFilter
	SensorFilters []store.SensorFilter
}

var _ store.HistoryStore = (*MockHistoryStore)(nil)

// CreateChat implements store.HistoryStore
func (m *MockHistoryStore) CreateChat(ctx context.Context, record *domain.ChatRecord) error {
	if m.CreateChatFn != nil {
		return m.CreateChatFn(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats = append(m.chats, record)
	return nil
}

// CreateSensorReading implements store.HistoryStore
func (m *MockHistoryStore) CreateSensorReading(ctx context.Context, reading *domain.SensorReading) error {
	if m.CreateSensorReadingFn != nil {
		return m.CreateSensorReadingFn(ctx, reading)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, reading)
	return nil
}

// GetChat implements store.HistoryStore
func (m *MockHistoryStore) GetChat(ctx context.Context, id uuid.UUID) (*domain.ChatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.chats {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, store.ErrChatRecordNotFound
}

// ListChats implements store.HistoryStore
func (m *MockHistoryStore) ListChats(ctx context.Context, filter store.ChatFilter) ([]*domain.ChatRecord, error) {
	m.mu.Lock()
	m.ChatFilters = append(m.ChatFilters, filter)
	m.mu.Unlock()

	if m.ListChatsFn != nil {
		return m.ListChatsFn(ctx, filter)
	}
	return m.Chats(), nil
}

// ListSensorReadings implements store.HistoryStore
func (m *MockHistoryStore) ListSensorReadings(
	ctx context.Context,
	filter store.SensorFilter,
) ([]*domain.SensorReading, error) {
	m.mu.Lock()
	m.SensorFilters = append(m.SensorFilters, filter)
	m.mu.Unlock()

	if m.ListSensorReadingsFn != nil {
		return m.ListSensorReadingsFn(ctx, filter)
	}
	return m.Readings(), nil
}

// WithTx implements store.HistoryStore. The mock has no transactions and
// returns itself.
func (m *MockHistoryStore) WithTx(tx *sql.Tx) store.HistoryStore {
	return m
}

// DB implements store.HistoryStore
func (m *MockHistoryStore) DB() *sql.DB {
	return nil
}

// Chats returns a copy of the stored conversations.
func (m *MockHistoryStore) Chats() []*domain.ChatRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ChatRecord{}, m.chats...)
}

// Readings returns a copy of the stored sensor readings.
func (m *MockHistoryStore) Readings() []*domain.SensorReading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.SensorReading{}, m.readings...)
}
