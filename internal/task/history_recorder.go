package task

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/platform/metrics"
	"github.com/phrazzld/agro-api/internal/service"
)

// History write paths reported to metrics.
const (
	writeQueued = "queued"
	writeInline = "inline"
	writeFailed = "failed"
)

// HistoryRecorderConfig configures the background history writers.
type HistoryRecorderConfig struct {
	// Workers is the number of background writers. Zero records inline.
	Workers   int
	QueueSize int
}

// HistoryRecorder hands advisory exchanges to the history service on a
// worker pool. When the queue is full or already closed the exchange is
// written inline, so no exchange is dropped.
type HistoryRecorder struct {
	history service.HistoryService
	queue   *TaskQueue
	pool    *WorkerPool
	logger  *slog.Logger
}

// NewHistoryRecorder creates a recorder for history and starts its workers.
// No workers are started when history is disabled or cfg.Workers is zero.
func NewHistoryRecorder(
	history service.HistoryService,
	cfg HistoryRecorderConfig,
	logger *slog.Logger,
) (*HistoryRecorder, error) {
	if history == nil {
		return nil, errors.New("history service cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	r := &HistoryRecorder{
		history: history,
		logger:  logger.With(slog.String("component", "history_recorder")),
	}
	if !history.Enabled() || cfg.Workers <= 0 {
		return r, nil
	}

	r.queue = NewTaskQueue(cfg.QueueSize, r.logger)
	poolCfg := DefaultWorkerPoolConfig()
	poolCfg.WorkerCount = cfg.Workers
	r.pool = NewWorkerPool(r.queue, poolCfg, r.logger)
	r.pool.SetErrorHandler(func(Task, error) {
		metrics.ObserveHistoryWrite(writeFailed)
	})
	r.pool.Start()
	return r, nil
}

// Enabled reports whether history is stored at all.
func (r *HistoryRecorder) Enabled() bool {
	return r.history.Enabled()
}

// Async reports whether exchanges are written by background workers.
func (r *HistoryRecorder) Async() bool {
	return r.queue != nil
}

// Record queues ex for writing. It never blocks on a full queue.
func (r *HistoryRecorder) Record(ctx context.Context, ex service.Exchange) {
	if !r.history.Enabled() {
		return
	}
	if r.queue == nil {
		r.recordInline(ctx, ex)
		return
	}

	t := &historyWriteTask{
		id:      uuid.New(),
		history: r.history,
		ex:      ex,
		logger:  logger.FromContextOrDefault(ctx, r.logger),
	}
	if err := r.queue.Enqueue(t); err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Warn("history queue unavailable, writing inline",
			slog.String("error", err.Error()))
		r.recordInline(ctx, ex)
		return
	}
	metrics.ObserveHistoryWrite(writeQueued)
}

func (r *HistoryRecorder) recordInline(ctx context.Context, ex service.Exchange) {
	metrics.ObserveHistoryWrite(writeInline)
	r.history.Record(ctx, ex)
}

// Close stops accepting queued writes and waits for the pending ones until
// ctx ends. Later Record calls write inline.
func (r *HistoryRecorder) Close(ctx context.Context) error {
	if r.queue == nil {
		return nil
	}
	r.queue.Close()
	return r.pool.Drain(ctx)
}

// historyWriteTask persists one exchange. It keeps the request logger so
// the write is logged with the request's trace id.
type historyWriteTask struct {
	id      uuid.UUID
	history service.HistoryService
	ex      service.Exchange
	logger  *slog.Logger
}

func (t *historyWriteTask) ID() uuid.UUID { return t.id }

func (t *historyWriteTask) Type() string { return TaskTypeHistoryWrite }

func (t *historyWriteTask) Execute(ctx context.Context) error {
	t.history.Record(logger.WithLogger(ctx, t.logger), t.ex)
	return nil
}
