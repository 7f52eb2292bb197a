package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/agro-api/internal/api/shared"
	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/generation"
	"github.com/phrazzld/agro-api/internal/service"
	"github.com/phrazzld/agro-api/internal/store"
)

// User-facing messages. Clients of this API expect Spanish text.
const (
	msgMissingInput      = "Debes enviar 'question' o bien 'parameter' y 'value'."
	msgMissingQuestion   = "Debes enviar 'question'."
	msgQuestionTooLong   = "La pregunta es demasiado larga."
	msgInvalidLength     = "El campo 'length' debe ser 'short' o 'medium'."
	msgInvalidParameter  = "Parámetro de sensor no reconocido."
	msgInvalidRequest    = "Solicitud inválida."
	msgInvalidFormat     = "Formato de solicitud inválido."
	msgUpstream          = "Error al consultar el modelo."
	msgTimeout           = "La consulta excedió el tiempo límite."
	msgHistoryDisabled   = "El historial no está disponible."
	msgInternal          = "Error interno del servidor."
	msgRecordNotFound    = "Registro no encontrado."
	msgInvalidQueryParam = "Parámetro de consulta inválido: %s."
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Optional history storage
	case errors.Is(err, service.ErrHistoryUnavailable),
		errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Model failures
	case errors.Is(err, generation.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return msgInternal

	case errors.Is(err, domain.ErrMissingInput):
		return msgMissingInput
	case errors.Is(err, domain.ErrQuestionTooLong):
		return msgQuestionTooLong
	case errors.Is(err, domain.ErrInvalidLength):
		return msgInvalidLength
	case errors.Is(err, domain.ErrInvalidParameter):
		return msgInvalidParameter
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return msgInvalidRequest

	case errors.Is(err, store.ErrNotFound):
		return msgRecordNotFound

	case errors.Is(err, service.ErrHistoryUnavailable),
		errors.Is(err, store.ErrUnavailable):
		return msgHistoryDisabled

	case errors.Is(err, generation.ErrUpstream):
		return msgUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout

	default:
		return msgInternal
	}
}

// HandleAPIError writes the status and message for err and logs it.
// A non-empty message overrides the default message for the error type.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), message, err)
}

// SanitizeValidationError turns validator failures into a short message
// naming the offending field, without echoing the submitted value.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return GetSafeErrorMessage(err)
	}

	fe := verrs[0]
	if fe.Field() == "length" {
		return msgInvalidLength
	}
	return fmt.Sprintf("Campo '%s' inválido: %s.", fe.Field(), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "es obligatorio"
	case "max":
		return "demasiado largo"
	case "oneof":
		return "valor no permitido"
	case "gte", "lte", "gt", "lt":
		return "fuera de rango"
	default:
		return "no cumple la validación"
	}
}
