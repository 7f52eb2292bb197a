package gemini

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/agro-api/internal/generation"
	"google.golang.org/genai"
)

// Error definitions for the gemini package.
var (
	// ErrMissingAPIKey is returned when the backend is created without a key.
	ErrMissingAPIKey = errors.New("gemini API key cannot be empty")
)

// classifyError tags genai API errors with the generation sentinel the
// invoker acts on. 404 means the model is gone, 429 and 5xx are left
// untagged so they are retried, and any other 4xx is permanent. Errors that
// carry no HTTP status are returned unchanged.
func classifyError(err error) error {
	code, ok := apiErrorCode(err)
	if !ok {
		return err
	}
	switch {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", generation.ErrModelNotFound, err)
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return err
	case code >= http.StatusBadRequest:
		return fmt.Errorf("%w: %w", generation.ErrPermanent, err)
	default:
		return err
	}
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
