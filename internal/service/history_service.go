package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/sanitize"
	"github.com/phrazzld/agro-api/internal/store"
)

// Exchange is one finished advisory request as seen by the route layer.
type Exchange struct {
	Endpoint string
	Query    domain.Query
	Answer   *domain.ModelAnswer
	Elapsed  time.Duration
	UserIP   string

	// Err is the error the request failed with, if any.
	Err error
}

// HistoryService records advisory exchanges and serves the stored history.
type HistoryService interface {
	// Enabled reports whether history storage is configured.
	Enabled() bool

	// Record stores an exchange. Storage failures are logged, never returned.
	Record(ctx context.Context, ex Exchange)

	// RecentChats returns stored conversations, newest first.
	RecentChats(ctx context.Context, filter store.ChatFilter) ([]*domain.ChatRecord, error)

	// SensorHistory returns stored sensor readings, newest first.
	SensorHistory(ctx context.Context, filter store.SensorFilter) ([]*domain.SensorReading, error)
}

// HistoryServiceError wraps errors from the history service with context.
type HistoryServiceError struct {
	// Operation is the operation that failed (e.g., "record", "recent_chats")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for HistoryServiceError.
func (e *HistoryServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("history service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("history service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *HistoryServiceError) Unwrap() error {
	return e.Err
}

// NewHistoryServiceError creates a new HistoryServiceError.
// It returns known sentinel errors directly without wrapping.
func NewHistoryServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrHistoryUnavailable) || errors.Is(err, store.ErrUnavailable) {
		return ErrHistoryUnavailable
	}
	return &HistoryServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

type historyServiceImpl struct {
	historyRepo store.HistoryStore
	logger      *slog.Logger
}

var _ HistoryService = (*historyServiceImpl)(nil)

// NewHistoryService creates a HistoryService. A nil historyRepo yields a
// service that records nothing and answers lookups with ErrHistoryUnavailable.
func NewHistoryService(historyRepo store.HistoryStore, logger *slog.Logger) (HistoryService, error) {
	if logger == nil {
		return nil, &HistoryServiceError{
			Operation: "create_service",
			Message:   "logger cannot be nil",
		}
	}

	return &historyServiceImpl{
		historyRepo: historyRepo,
		logger:      logger.With(slog.String("component", "history_service")),
	}, nil
}

func (s *historyServiceImpl) Enabled() bool {
	return s.historyRepo != nil
}

// Record stores the conversation row and, for sensor queries that produced a
// recommendation, the sensor reading. Both rows are written in one
// transaction when the store exposes a database handle.
func (s *historyServiceImpl) Record(ctx context.Context, ex Exchange) {
	if !s.Enabled() {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	// The request may already be past its deadline.
	ctx = context.WithoutCancel(ctx)

	chat, err := domain.NewChatRecord(ex.Endpoint, ex.Query, ex.Answer, ex.Elapsed, ex.UserIP)
	if err != nil {
		log.Error("failed to build chat record", slog.String("error", err.Error()))
		return
	}
	if ex.Err != nil {
		chat.Error = sanitize.Error(ex.Err)
	}

	var reading *domain.SensorReading
	if ex.Answer != nil && ex.Answer.Recommendation != nil && ex.Query.HasMeasurement() {
		reading, err = domain.NewSensorReading(ex.Query, ex.Answer.Recommendation)
		if err != nil {
			log.Warn("skipping sensor reading", slog.String("error", err.Error()))
			reading = nil
		}
	}

	write := func(ctx context.Context, repo store.HistoryStore) error {
		if err := repo.CreateChat(ctx, chat); err != nil {
			return NewHistoryServiceError("record", "failed to save chat record", err)
		}
		if reading != nil {
			if err := repo.CreateSensorReading(ctx, reading); err != nil {
				return NewHistoryServiceError("record", "failed to save sensor reading", err)
			}
		}
		return nil
	}

	if db := s.historyRepo.DB(); db != nil {
		err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return write(ctx, s.historyRepo.WithTx(tx))
		})
	} else {
		err = write(ctx, s.historyRepo)
	}
	if err != nil {
		log.Error("failed to record advisory history",
			slog.String("error", err.Error()),
			slog.String("endpoint", ex.Endpoint),
			slog.String("record_id", chat.ID.String()))
		return
	}

	log.Debug("advisory history recorded",
		slog.String("record_id", chat.ID.String()),
		slog.Bool("sensor_reading", reading != nil))
}

// RecentChats returns stored conversations matching filter.
func (s *historyServiceImpl) RecentChats(
	ctx context.Context,
	filter store.ChatFilter,
) ([]*domain.ChatRecord, error) {
	if !s.Enabled() {
		return nil, ErrHistoryUnavailable
	}

	chats, err := s.historyRepo.ListChats(ctx, filter)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list chat history",
			slog.String("error", err.Error()))
		return nil, NewHistoryServiceError("recent_chats", "failed to list chat history", err)
	}
	return chats, nil
}

// SensorHistory returns stored sensor readings matching filter.
func (s *historyServiceImpl) SensorHistory(
	ctx context.Context,
	filter store.SensorFilter,
) ([]*domain.SensorReading, error) {
	if !s.Enabled() {
		return nil, ErrHistoryUnavailable
	}

	readings, err := s.historyRepo.ListSensorReadings(ctx, filter)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list sensor history",
			slog.String("error", err.Error()))
		return nil, NewHistoryServiceError("sensor_history", "failed to list sensor history", err)
	}
	return readings, nil
}
