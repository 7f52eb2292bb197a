package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/store"
)

const (
	chatColumns = `id, created_at, endpoint, question, crop, stage, parameter, value, unit, length,
		answer, model, recommendation, response_time_ms, user_ip, error`
	sensorColumns = `id, created_at, crop, stage, parameter, value, unit, action,
		target_min, target_max, target_unit, rationale`
)

// PostgresHistoryStore implements the store.HistoryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresHistoryStore creates a new PostgreSQL implementation of the HistoryStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "history_store")),
	}
}

// Ensure PostgresHistoryStore implements store.HistoryStore interface
var _ store.HistoryStore = (*PostgresHistoryStore)(nil)

// CreateChat implements store.HistoryStore.CreateChat
func (s *PostgresHistoryStore) CreateChat(ctx context.Context, record *domain.ChatRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("chat record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var recommendation []byte
	if record.Recommendation != nil {
		var err error
		if recommendation, err = json.Marshal(record.Recommendation); err != nil {
			return fmt.Errorf("%w: recommendation: %w", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO chat_history (` + chatColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Timestamp,
		record.Endpoint,
		nullString(record.Question),
		nullString(record.Crop),
		nullString(record.Stage),
		nullString(string(record.Parameter)),
		record.Value,
		nullString(record.Unit),
		nullString(string(record.Length)),
		record.Answer,
		nullString(record.Model),
		recommendation,
		record.ResponseTimeMS,
		nullString(record.UserIP),
		nullString(record.Error),
	)
	if err != nil {
		log.Error("failed to create chat record",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return MapError(err)
	}

	log.Debug("chat record created",
		slog.String("record_id", record.ID.String()),
		slog.String("endpoint", record.Endpoint))
	return nil
}

// CreateSensorReading implements store.HistoryStore.CreateSensorReading
func (s *PostgresHistoryStore) CreateSensorReading(ctx context.Context, reading *domain.SensorReading) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := reading.Validate(); err != nil {
		log.Warn("sensor reading validation failed during create",
			slog.String("error", err.Error()),
			slog.String("reading_id", reading.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO sensor_readings (` + sensorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		reading.ID,
		reading.Timestamp,
		nullString(reading.Crop),
		nullString(reading.Stage),
		string(reading.Parameter),
		reading.Value,
		nullString(reading.Unit),
		string(reading.Action),
		reading.TargetMin,
		reading.TargetMax,
		nullString(reading.TargetUnit),
		nullString(reading.Rationale),
	)
	if err != nil {
		log.Error("failed to create sensor reading",
			slog.String("error", err.Error()),
			slog.String("reading_id", reading.ID.String()))
		return MapError(err)
	}

	log.Debug("sensor reading created",
		slog.String("reading_id", reading.ID.String()),
		slog.String("parameter", reading.Parameter.String()))
	return nil
}

// GetChat implements store.HistoryStore.GetChat
func (s *PostgresHistoryStore) GetChat(ctx context.Context, id uuid.UUID) (*domain.ChatRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + chatColumns + ` FROM chat_history WHERE id = $1`
	record, err := scanChat(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("chat record not found", slog.String("record_id", id.String()))
			return nil, store.ErrChatRecordNotFound
		}
		log.Error("failed to get chat record",
			slog.String("error", err.Error()),
			slog.String("record_id", id.String()))
		return nil, MapError(err)
	}
	return record, nil
}

// ListChats implements store.HistoryStore.ListChats
func (s *PostgresHistoryStore) ListChats(ctx context.Context, filter store.ChatFilter) ([]*domain.ChatRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var w where
	w.eq("endpoint", filter.Endpoint)
	w.eq("crop", filter.Crop)

	query := `SELECT ` + chatColumns + ` FROM chat_history` + w.clause() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", store.ClampLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		log.Error("failed to list chat records", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	records := []*domain.ChatRecord{}
	for rows.Next() {
		record, err := scanChat(rows)
		if err != nil {
			log.Error("failed to scan chat record", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed chat records", slog.Int("count", len(records)))
	return records, nil
}

// ListSensorReadings implements store.HistoryStore.ListSensorReadings
func (s *PostgresHistoryStore) ListSensorReadings(
	ctx context.Context,
	filter store.SensorFilter,
) ([]*domain.SensorReading, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var w where
	w.eq("crop", filter.Crop)
	w.eq("parameter", string(filter.Parameter))
	if !filter.Since.IsZero() {
		w.add("created_at >= $%d", filter.Since)
	}

	query := `SELECT ` + sensorColumns + ` FROM sensor_readings` + w.clause() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", store.ClampLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		log.Error("failed to list sensor readings", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	readings := []*domain.SensorReading{}
	for rows.Next() {
		var (
			r                     domain.SensorReading
			crop, stage, unit     sql.NullString
			targetUnit, rationale sql.NullString
			parameter, action     string
		)
		if err := rows.Scan(&r.ID, &r.Timestamp, &crop, &stage, &parameter, &r.Value, &unit, &action,
			&r.TargetMin, &r.TargetMax, &targetUnit, &rationale); err != nil {
			log.Error("failed to scan sensor reading", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		r.Crop, r.Stage, r.Unit = crop.String, stage.String, unit.String
		r.TargetUnit, r.Rationale = targetUnit.String, rationale.String
		r.Parameter, r.Action = domain.Parameter(parameter), domain.Action(action)
		readings = append(readings, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed sensor readings", slog.Int("count", len(readings)))
	return readings, nil
}

// WithTx implements store.HistoryStore.WithTx
func (s *PostgresHistoryStore) WithTx(tx *sql.Tx) store.HistoryStore {
	return &PostgresHistoryStore{
		db:     tx,
		logger: s.logger,
	}
}

// DB implements store.HistoryStore.DB
// Returns nil when the store is bound to a transaction.
func (s *PostgresHistoryStore) DB() *sql.DB {
	if db, ok := s.db.(*sql.DB); ok {
		return db
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*domain.ChatRecord, error) {
	var (
		r                                 domain.ChatRecord
		question, crop, stage, parameter  sql.NullString
		unit, length, model, userIP, errS sql.NullString
		recommendation                    []byte
	)
	if err := row.Scan(&r.ID, &r.Timestamp, &r.Endpoint, &question, &crop, &stage, &parameter,
		&r.Value, &unit, &length, &r.Answer, &model, &recommendation, &r.ResponseTimeMS,
		&userIP, &errS); err != nil {
		return nil, err
	}

	r.Question, r.Crop, r.Stage = question.String, crop.String, stage.String
	r.Parameter = domain.Parameter(parameter.String)
	r.Unit, r.Length, r.Model = unit.String, domain.Length(length.String), model.String
	r.UserIP, r.Error = userIP.String, errS.String

	if len(recommendation) > 0 {
		var rec domain.Recommendation
		if err := json.Unmarshal(recommendation, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode stored recommendation: %w", err)
		}
		r.Recommendation = &rec
	}
	return &r, nil
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

// eq adds "column = value" unless value is blank.
func (w *where) eq(column, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	w.add(column+" = $%d", value)
}

func (w *where) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
