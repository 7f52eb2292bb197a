package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/agro-api/internal/config"
	"github.com/phrazzld/agro-api/internal/generation"
	"github.com/phrazzld/agro-api/internal/platform/gemini"
	"github.com/phrazzld/agro-api/internal/platform/metrics"
	"github.com/phrazzld/agro-api/internal/platform/postgres"
	"github.com/phrazzld/agro-api/internal/prompt"
	"github.com/phrazzld/agro-api/internal/sanitize"
	"github.com/phrazzld/agro-api/internal/service"
	"github.com/phrazzld/agro-api/internal/service/advisor"
	"github.com/phrazzld/agro-api/internal/store"
	"github.com/phrazzld/agro-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when history is disabled
	db *sql.DB

	invoker  *generation.Invoker
	advisor  advisor.Service
	history  service.HistoryService
	recorder *task.HistoryRecorder
}

// newApplication creates a new application instance with all dependencies initialized.
// db may be nil, in which case history is not recorded.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("config and logger cannot be nil")
	}
	metrics.InitMetrics()

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// The backend is only built for live mode; the invoker serves demo
	// answers without one.
	var backend generation.Backend
	if !cfg.LLM.MockMode && strings.TrimSpace(cfg.LLM.GeminiAPIKey) != "" {
		b, err := gemini.NewBackend(ctx, cfg.LLM.GeminiAPIKey, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini backend: %w", err)
		}
		backend = b
	}

	var err error
	app.invoker, err = generation.NewInvoker(backend, generation.Settings{
		APIKey:            cfg.LLM.GeminiAPIKey,
		ModelName:         cfg.LLM.ModelName,
		MockMode:          cfg.LLM.MockMode,
		SystemInstruction: prompt.LoadSystemInstruction(cfg.LLM.PromptPath, logger),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation invoker: %w", err)
	}

	// Probe the backend up front so /health reports the real mode. A failed
	// probe leaves the invoker degraded.
	if err := app.invoker.Configure(ctx); err != nil {
		logger.Warn("generation backend unavailable, serving demo answers",
			"error", sanitize.Error(err))
	}
	logger.Info("generation invoker configured",
		"mode", app.invoker.Mode().String(),
		"model", app.invoker.ModelName())

	app.advisor, err = advisor.NewService(
		app.invoker,
		prompt.NewComposer(cfg.LLM.MaxInputChars),
		advisor.Config{MaxInputChars: cfg.LLM.MaxInputChars},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create advisor service: %w", err)
	}

	var historyStore store.HistoryStore
	if db != nil {
		historyStore = postgres.NewPostgresHistoryStore(db, logger)
	}
	app.history, err = service.NewHistoryService(historyStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create history service: %w", err)
	}

	app.recorder, err = task.NewHistoryRecorder(app.history, task.HistoryRecorderConfig{
		Workers:   cfg.Database.HistoryWorkers,
		QueueSize: cfg.Database.HistoryQueueSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create history recorder: %w", err)
	}

	logger.Info("application initialized successfully",
		"history_enabled", app.history.Enabled(),
		"history_async", app.recorder.Async())
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. Queued
// history writes are flushed before the database is closed.
func (app *application) cleanup() {
	if app.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.recorder.Close(ctx); err != nil {
			app.logger.Error("error flushing history writes", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
