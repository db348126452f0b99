package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/resilience"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrPageOutOfRange),
		domain.IsKind(err, domain.ErrUnsupportedFile),
		domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrStopped), resilience.IsCircuitOpen(err):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrHTTPStatus),
		domain.IsKind(err, domain.ErrNetwork),
		domain.IsKind(err, domain.ErrInvalidResponseFormat),
		domain.IsKind(err, domain.ErrNoValidData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": domain.UserMessage(err)})
}
