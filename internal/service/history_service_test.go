package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/mocks"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/service"
	"github.com/phrazzld/agro-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// txHistoryStore exposes a sqlmock database so Record takes the
// transactional path.
type txHistoryStore struct {
	*mocks.MockHistoryStore
	db *sql.DB
}

func (s *txHistoryStore) DB() *sql.DB { return s.db }

func (s *txHistoryStore) WithTx(tx *sql.Tx) store.HistoryStore { return s }

func sensorExchange() service.Exchange {
	q := domain.Query{
		Crop:      "maíz",
		Parameter: domain.ParameterSoilMoisture,
		Value:     ptr(15),
		Unit:      "%",
	}
	return service.Exchange{
		Endpoint: domain.EndpointAsk,
		Query:    q,
		Answer: &domain.ModelAnswer{
			Answer: "Recomendación: aumentar soil_moisture",
			Model:  "gemini-1.5-pro",
			Recommendation: &domain.Recommendation{
				Action:    domain.ActionIncrease,
				Parameter: domain.ParameterSoilMoisture,
				TargetRange: &domain.TargetRange{
					Min:  ptr(20),
					Max:  ptr(30),
					Unit: "%",
				},
			},
		},
		Elapsed: 120 * time.Millisecond,
		UserIP:  "10.0.0.1",
	}
}

func TestNewHistoryService(t *testing.T) {
	t.Parallel()

	_, err := service.NewHistoryService(&mocks.MockHistoryStore{}, nil)
	require.Error(t, err)

	log, _ := logger.GetTestLogger(t)
	svc, err := service.NewHistoryService(nil, log)
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	svc, err = service.NewHistoryService(&mocks.MockHistoryStore{}, log)
	require.NoError(t, err)
	assert.True(t, svc.Enabled())
}

func TestHistoryService_Disabled(t *testing.T) {
	t.Parallel()

	log, _ := logger.GetTestLogger(t)
	svc, err := service.NewHistoryService(nil, log)
	require.NoError(t, err)

	svc.Record(context.Background(), sensorExchange())

	_, err = svc.RecentChats(context.Background(), store.ChatFilter{})
	assert.ErrorIs(t, err, service.ErrHistoryUnavailable)

	_, err = svc.SensorHistory(context.Background(), store.SensorFilter{})
	assert.ErrorIs(t, err, service.ErrHistoryUnavailable)
}

func TestHistoryService_Record(t *testing.T) {
	t.Parallel()

	t.Run("sensor query stores chat and reading", func(t *testing.T) {
		t.Parallel()
		repo := &mocks.MockHistoryStore{}
		log, _ := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		svc.Record(context.Background(), sensorExchange())

		chats := repo.Chats()
		require.Len(t, chats, 1)
		assert.Equal(t, domain.EndpointAsk, chats[0].Endpoint)
		assert.Equal(t, "gemini-1.5-pro", chats[0].Model)
		assert.Equal(t, "10.0.0.1", chats[0].UserIP)
		require.NotNil(t, chats[0].ResponseTimeMS)
		assert.Equal(t, int64(120), *chats[0].ResponseTimeMS)
		assert.Empty(t, chats[0].Error)

		readings := repo.Readings()
		require.Len(t, readings, 1)
		assert.Equal(t, domain.ActionIncrease, readings[0].Action)
		assert.Equal(t, 15.0, readings[0].Value)
		require.NotNil(t, readings[0].TargetMin)
		assert.Equal(t, 20.0, *readings[0].TargetMin)
	})

	t.Run("text query stores chat only", func(t *testing.T) {
		t.Parallel()
		repo := &mocks.MockHistoryStore{}
		log, _ := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		svc.Record(context.Background(), service.Exchange{
			Endpoint: domain.EndpointChat,
			Query:    domain.Query{Question: "¿Cuándo sembrar maíz?", Length: domain.LengthShort},
			Answer:   &domain.ModelAnswer{Answer: "En primavera.", Model: "gemini-1.5-pro"},
		})

		chats := repo.Chats()
		require.Len(t, chats, 1)
		assert.Equal(t, domain.LengthShort, chats[0].Length)
		assert.Nil(t, chats[0].Recommendation)
		assert.Empty(t, repo.Readings())
	})

	t.Run("failed request records the redacted error", func(t *testing.T) {
		t.Parallel()
		repo := &mocks.MockHistoryStore{}
		log, _ := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		svc.Record(context.Background(), service.Exchange{
			Endpoint: domain.EndpointChat,
			Query:    domain.Query{Question: "hola"},
			Err:      errors.New("upstream failed"),
		})

		chats := repo.Chats()
		require.Len(t, chats, 1)
		assert.Equal(t, "upstream failed", chats[0].Error)
		assert.Empty(t, chats[0].Answer)
	})

	t.Run("store failure is logged and skips the reading", func(t *testing.T) {
		t.Parallel()
		repo := &mocks.MockHistoryStore{
			CreateChatFn: func(ctx context.Context, record *domain.ChatRecord) error {
				return errors.New("transaction failed")
			},
		}
		log, buf := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		svc.Record(context.Background(), sensorExchange())

		assert.Empty(t, repo.Readings())
		logger.AssertLogContains(t, buf, "failed to record advisory history")
	})

	t.Run("cancelled request context still records", func(t *testing.T) {
		t.Parallel()
		var sawCancel bool
		repo := &mocks.MockHistoryStore{}
		repo.CreateChatFn = func(ctx context.Context, record *domain.ChatRecord) error {
			sawCancel = ctx.Err() != nil
			return nil
		}
		log, _ := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc.Record(ctx, sensorExchange())

		assert.False(t, sawCancel)
	})
}

func TestHistoryService_RecordInTransaction(t *testing.T) {
	t.Parallel()

	t.Run("commits both rows", func(t *testing.T) {
		t.Parallel()
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		repo := &txHistoryStore{MockHistoryStore: &mocks.MockHistoryStore{}, db: db}
		log, _ := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectCommit()

		svc.Record(context.Background(), sensorExchange())

		assert.Len(t, repo.Chats(), 1)
		assert.Len(t, repo.Readings(), 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the reading fails", func(t *testing.T) {
		t.Parallel()
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		repo := &txHistoryStore{
			MockHistoryStore: &mocks.MockHistoryStore{
				CreateSensorReadingFn: func(ctx context.Context, reading *domain.SensorReading) error {
					return store.ErrInvalidEntity
				},
			},
			db: db,
		}
		log, buf := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectRollback()

		svc.Record(context.Background(), sensorExchange())

		assert.NoError(t, mock.ExpectationsWereMet())
		logger.AssertLogContains(t, buf, "failed to save sensor reading")
	})
}

func TestHistoryService_Lookups(t *testing.T) {
	t.Parallel()

	t.Run("passes filters through", func(t *testing.T) {
		t.Parallel()
		repo := &mocks.MockHistoryStore{}
		log, _ := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		svc.Record(context.Background(), sensorExchange())

		chats, err := svc.RecentChats(context.Background(), store.ChatFilter{Crop: "maíz", Limit: 5})
		require.NoError(t, err)
		assert.Len(t, chats, 1)
		require.Len(t, repo.ChatFilters, 1)
		assert.Equal(t, "maíz", repo.ChatFilters[0].Crop)
		assert.Equal(t, 5, repo.ChatFilters[0].Limit)

		since := time.Now().Add(-24 * time.Hour)
		readings, err := svc.SensorHistory(context.Background(), store.SensorFilter{
			Parameter: domain.ParameterSoilMoisture,
			Since:     since,
		})
		require.NoError(t, err)
		assert.Len(t, readings, 1)
		require.Len(t, repo.SensorFilters, 1)
		assert.Equal(t, since, repo.SensorFilters[0].Since)
	})

	t.Run("wraps store errors", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("connection refused")
		repo := &mocks.MockHistoryStore{
			ListChatsFn: func(ctx context.Context, filter store.ChatFilter) ([]*domain.ChatRecord, error) {
				return nil, dbErr
			},
			ListSensorReadingsFn: func(ctx context.Context, filter store.SensorFilter) ([]*domain.SensorReading, error) {
				return nil, store.ErrUnavailable
			},
		}
		log, _ := logger.GetTestLogger(t)
		svc, err := service.NewHistoryService(repo, log)
		require.NoError(t, err)

		_, err = svc.RecentChats(context.Background(), store.ChatFilter{})
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		var svcErr *service.HistoryServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "recent_chats", svcErr.Operation)

		_, err = svc.SensorHistory(context.Background(), store.SensorFilter{})
		assert.Equal(t, service.ErrHistoryUnavailable, err)
	})
}
