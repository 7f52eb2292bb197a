package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/agro-api/internal/api/shared"
	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/service"
	"github.com/phrazzld/agro-api/internal/store"
)

// History lookup defaults and bounds.
const (
	DefaultChatLimit   = 20
	DefaultSensorLimit = 100
	DefaultSensorHours = 24
	MaxSensorHours     = 24 * 90
)

// endpointFilters maps the accepted endpoint filter values to stored
// endpoint names.
var endpointFilters = map[string]string{
	"ask":               domain.EndpointAsk,
	"chat":              domain.EndpointChat,
	domain.EndpointAsk:  domain.EndpointAsk,
	domain.EndpointChat: domain.EndpointChat,
}

// HistoryHandler serves the stored conversation and sensor history.
type HistoryHandler struct {
	history service.HistoryService
	logger  *slog.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(historyService service.HistoryService, logger *slog.Logger) *HistoryHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for HistoryHandler")
	}
	if historyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("history service cannot be nil for HistoryHandler")
	}

	return &HistoryHandler{
		history: historyService,
		logger:  logger.With(slog.String("component", "history_handler")),
	}
}

// ListChats handles GET /v1/agro/history requests.
// Query parameters: limit, endpoint (ask or chat) and crop.
func (h *HistoryHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit, err := queryInt(r, "limit", DefaultChatLimit, store.MaxHistoryLimit)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, queryParamMessage(err))
		return
	}

	filter := store.ChatFilter{
		Crop:  strings.TrimSpace(r.URL.Query().Get("crop")),
		Limit: limit,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("endpoint")); raw != "" {
		endpoint, ok := endpointFilters[strings.ToLower(raw)]
		if !ok {
			shared.RespondWithError(w, r, http.StatusBadRequest, queryParamMessage(
				domain.NewValidationError("endpoint", "is not a known endpoint", domain.ErrValidation)))
			return
		}
		filter.Endpoint = endpoint
	}

	chats, err := h.history.RecentChats(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("chat history served", slog.Int("count", len(chats)))
	shared.RespondWithJSON(w, r, http.StatusOK, ChatHistoryResponse{
		Count: len(chats),
		Items: nonNil(chats),
	})
}

// ListSensorReadings handles GET /v1/agro/sensors/history requests.
// Query parameters: crop, parameter, hours and limit.
func (h *HistoryHandler) ListSensorReadings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit, err := queryInt(r, "limit", DefaultSensorLimit, store.MaxHistoryLimit)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, queryParamMessage(err))
		return
	}
	hours, err := queryInt(r, "hours", DefaultSensorHours, MaxSensorHours)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, queryParamMessage(err))
		return
	}
	parameter, err := queryParameter(r, "parameter")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, queryParamMessage(err))
		return
	}

	readings, err := h.history.SensorHistory(r.Context(), store.SensorFilter{
		Crop:      strings.TrimSpace(r.URL.Query().Get("crop")),
		Parameter: parameter,
		Since:     time.Now().UTC().Add(-time.Duration(hours) * time.Hour),
		Limit:     limit,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("sensor history served", slog.Int("count", len(readings)))
	shared.RespondWithJSON(w, r, http.StatusOK, SensorHistoryResponse{
		Count: len(readings),
		Hours: hours,
		Items: nonNil(readings),
	})
}

// nonNil keeps empty results encoded as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
