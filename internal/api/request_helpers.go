package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/phrazzld/agro-api/internal/domain"
)

// clientIP returns the host part of the request's remote address. The router
// runs chi's RealIP middleware, so forwarded addresses are already applied.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// queryInt reads a positive integer query parameter, returning def when it
// is absent. Values above maxValue are clamped.
//
// Returns a domain.ValidationError when the value is not a positive integer.
func queryInt(r *http.Request, name string, def, maxValue int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer", domain.ErrValidation)
	}
	return min(n, maxValue), nil
}

// queryParameter reads an optional sensor parameter filter.
func queryParameter(r *http.Request, name string) (domain.Parameter, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return "", nil
	}

	p, ok := domain.ParseParameter(raw)
	if !ok {
		return "", domain.NewValidationError(name, "is not a known parameter", domain.ErrInvalidParameter)
	}
	return p, nil
}

// queryParamMessage is the client message for a bad query parameter.
func queryParamMessage(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf(msgInvalidQueryParam, verr.Field)
	}
	return msgInvalidRequest
}
