package task_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/mocks"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/service"
	"github.com/phrazzld/agro-api/internal/store"
	"github.com/phrazzld/agro-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingHistory is a HistoryService whose writes for the question "uno"
// wait on release.
type blockingHistory struct {
	enabled bool
	release chan struct{}

	mu       sync.Mutex
	recorded []service.Exchange
}

func newBlockingHistory() *blockingHistory {
	return &blockingHistory{enabled: true, release: make(chan struct{})}
}

func (b *blockingHistory) Enabled() bool { return b.enabled }

func (b *blockingHistory) Record(ctx context.Context, ex service.Exchange) {
	if ex.Query.Question == "uno" {
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recorded = append(b.recorded, ex)
}

func (b *blockingHistory) RecentChats(context.Context, store.ChatFilter) ([]*domain.ChatRecord, error) {
	return nil, nil
}

func (b *blockingHistory) SensorHistory(context.Context, store.SensorFilter) ([]*domain.SensorReading, error) {
	return nil, nil
}

func (b *blockingHistory) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.recorded)
}

func exchange(question string) service.Exchange {
	return service.Exchange{
		Endpoint: domain.EndpointChat,
		Query:    domain.Query{Question: question},
		Answer:   &domain.ModelAnswer{Answer: "respuesta", Model: "mock-model"},
		Elapsed:  15 * time.Millisecond,
		UserIP:   "192.0.2.10",
	}
}

func TestNewHistoryRecorder_Validation(t *testing.T) {
	t.Parallel()
	log, _ := logger.GetTestLogger(t)

	_, err := task.NewHistoryRecorder(nil, task.HistoryRecorderConfig{}, log)
	assert.Error(t, err)

	_, err = task.NewHistoryRecorder(newBlockingHistory(), task.HistoryRecorderConfig{}, nil)
	assert.Error(t, err)
}

func TestHistoryRecorder_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		enabled   bool
		workers   int
		wantAsync bool
	}{
		{"workers configured", true, 2, true},
		{"zero workers", true, 0, false},
		{"history disabled", false, 2, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			log, _ := logger.GetTestLogger(t)
			history := newBlockingHistory()
			history.enabled = tc.enabled

			rec, err := task.NewHistoryRecorder(history, task.HistoryRecorderConfig{Workers: tc.workers, QueueSize: 4}, log)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAsync, rec.Async())
			assert.NoError(t, rec.Close(context.Background()))
		})
	}
}

func TestHistoryRecorder_QueuedWritesReachStore(t *testing.T) {
	t.Parallel()
	log, buf := logger.GetTestLogger(t)
	repo := &mocks.MockHistoryStore{}
	history, err := service.NewHistoryService(repo, log)
	require.NoError(t, err)

	rec, err := task.NewHistoryRecorder(history, task.HistoryRecorderConfig{Workers: 2, QueueSize: 10}, log)
	require.NoError(t, err)

	ctx := logger.WithLogger(context.Background(), log.With("trace_id", "trace-queued-1"))
	for _, q := range []string{"¿Cuándo sembrar?", "¿Cuánto regar?", "¿Qué abono usar?"} {
		rec.Record(ctx, exchange(q))
	}

	require.NoError(t, rec.Close(context.Background()))
	assert.Len(t, repo.Chats(), 3)
	logger.AssertLogContains(t, buf, "trace-queued-1")
}

func TestHistoryRecorder_FullQueueWritesInline(t *testing.T) {
	t.Parallel()
	log, buf := logger.GetTestLogger(t)
	history := newBlockingHistory()

	rec, err := task.NewHistoryRecorder(history, task.HistoryRecorderConfig{Workers: 1, QueueSize: 1}, log)
	require.NoError(t, err)

	// The worker blocks on the first write, so later writes fill the queue.
	rec.Record(context.Background(), exchange("uno"))
	require.Eventually(t, func() bool {
		rec.Record(context.Background(), exchange("relleno"))
		return strings.Contains(buf.String(), task.ErrQueueFull.Error())
	}, time.Second, 5*time.Millisecond)

	close(history.release)
	require.NoError(t, rec.Close(context.Background()))
	assert.GreaterOrEqual(t, history.count(), 2)
	logger.AssertLogContains(t, buf, "history queue unavailable, writing inline")
}

func TestHistoryRecorder_RecordAfterCloseWritesInline(t *testing.T) {
	t.Parallel()
	log, _ := logger.GetTestLogger(t)
	repo := &mocks.MockHistoryStore{}
	history, err := service.NewHistoryService(repo, log)
	require.NoError(t, err)

	rec, err := task.NewHistoryRecorder(history, task.HistoryRecorderConfig{Workers: 1, QueueSize: 4}, log)
	require.NoError(t, err)
	require.NoError(t, rec.Close(context.Background()))

	rec.Record(context.Background(), exchange("tarde"))
	assert.Len(t, repo.Chats(), 1)
}
