package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/agro-api/internal/api/shared"
	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/service"
	"github.com/phrazzld/agro-api/internal/service/advisor"
)

// HistoryRecorder persists answered exchanges. service.HistoryService
// writes inline; task.HistoryRecorder writes in the background.
type HistoryRecorder interface {
	Enabled() bool
	Record(ctx context.Context, ex service.Exchange)
}

// AgroHandler handles the advisory endpoints.
type AgroHandler struct {
	advisor advisor.Service
	history HistoryRecorder
	logger  *slog.Logger
}

// NewAgroHandler creates a new AgroHandler
func NewAgroHandler(
	advisorService advisor.Service,
	historyService HistoryRecorder,
	logger *slog.Logger,
) *AgroHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AgroHandler")
	}
	if advisorService == nil || historyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("advisor and history services cannot be nil for AgroHandler")
	}

	return &AgroHandler{
		advisor: advisorService,
		history: historyService,
		logger:  logger.With(slog.String("component", "agro_handler")),
	}
}

// Health handles GET /health requests.
func (h *AgroHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.advisor.Status()
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:   "ok",
		Mode:     status.Mode.String(),
		MockMode: status.MockMode,
		Model:    status.Model,
		History:  h.history.Enabled(),
	})
}

// Ask handles POST /v1/agro/ask requests.
// A sensor reading yields a structured recommendation; a question alone
// yields an educational answer.
func (h *AgroHandler) Ask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req AskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidFormat, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		log.Debug("invalid ask request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	answer, ok := h.answer(w, r, domain.EndpointAsk, req.ToQuery(), "")
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, answer)
}

// Chat handles POST /v1/agro/chat requests: free text in, answer and tips out.
func (h *AgroHandler) Chat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ChatRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidFormat, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		log.Debug("invalid chat request", slog.String("error", err.Error()))
		msg := SanitizeValidationError(err)
		if errors.Is(err, domain.ErrMissingInput) {
			msg = msgMissingQuestion
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, msg)
		return
	}

	answer, ok := h.answer(w, r, domain.EndpointChat, req.ToQuery(), msgMissingQuestion)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ChatResponse{
		Answer: answer.Answer,
		Model:  answer.Model,
		Tips:   answer.Tips,
	})
}

// answer runs the advisor and records the exchange. It writes the error
// response itself and reports false when the request failed. missingMsg,
// when set, replaces the message for domain.ErrMissingInput.
func (h *AgroHandler) answer(
	w http.ResponseWriter,
	r *http.Request,
	endpoint string,
	q domain.Query,
	missingMsg string,
) (*domain.ModelAnswer, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	start := time.Now()

	answer, err := h.advisor.Ask(r.Context(), q)
	elapsed := time.Since(start)

	if err == nil || !errors.Is(err, domain.ErrValidation) {
		h.history.Record(r.Context(), service.Exchange{
			Endpoint: endpoint,
			Query:    q,
			Answer:   answer,
			Elapsed:  elapsed,
			UserIP:   clientIP(r),
			Err:      err,
		})
	}

	if err != nil {
		msg := ""
		if missingMsg != "" && errors.Is(err, domain.ErrMissingInput) {
			msg = missingMsg
		}
		HandleAPIError(w, r, err, msg)
		return nil, false
	}

	log.Info("advisory answer served",
		slog.String("endpoint", endpoint),
		slog.String("model", answer.Model),
		slog.Bool("recommendation", answer.Recommendation != nil),
		slog.Int64("elapsed_ms", elapsed.Milliseconds()))
	return answer, true
}
