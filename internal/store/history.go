package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agro-api/internal/domain"
)

// Paging limits for history lookups.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// ChatFilter narrows a conversation history lookup. Empty fields match
// everything.
type ChatFilter struct {
	Endpoint string
	Crop     string
	Limit    int
}

// SensorFilter narrows a sensor reading lookup. A zero Since matches every
// timestamp.
type SensorFilter struct {
	Crop      string
	Parameter domain.Parameter
	Since     time.Time
	Limit     int
}

// ClampLimit returns limit bounded to [1, MaxHistoryLimit], using
// DefaultHistoryLimit for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// HistoryStore defines the interface for advisory history persistence.
type HistoryStore interface {
	// CreateChat saves one advisory exchange.
	// Returns ErrInvalidEntity if the record fails validation.
	CreateChat(ctx context.Context, record *domain.ChatRecord) error

	// CreateSensorReading saves a sensor reading and its recommendation.
	// Returns ErrInvalidEntity if the reading fails validation.
	CreateSensorReading(ctx context.Context, reading *domain.SensorReading) error

	// GetChat retrieves a conversation by ID.
	// Returns ErrChatRecordNotFound if it does not exist.
	GetChat(ctx context.Context, id uuid.UUID) (*domain.ChatRecord, error)

	// ListChats returns the most recent conversations first.
	ListChats(ctx context.Context, filter ChatFilter) ([]*domain.ChatRecord, error)

	// ListSensorReadings returns the most recent readings first.
	ListSensorReadings(ctx context.Context, filter SensorFilter) ([]*domain.SensorReading, error)

	// WithTx returns a new HistoryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) HistoryStore

	// DB returns the underlying database connection.
	DB() *sql.DB
}
