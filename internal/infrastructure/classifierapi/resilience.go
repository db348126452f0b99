package classifierapi

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/resilience"
)

// ClassifyError decides how a fetcher treats a failed read against the
// service. Every remote failure kind is retried; only caller cancellation is
// final.
func ClassifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || domain.IsKind(err, domain.ErrStopped) || domain.IsKind(err, domain.ErrSuperseded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var httpErr *domain.HTTPError
	if errors.As(err, &httpErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: isServerSideStatus(httpErr.StatusCode),
		}
	}

	switch {
	case domain.IsKind(err, domain.ErrNetwork),
		domain.IsKind(err, domain.ErrTimeout),
		domain.IsKind(err, domain.ErrInvalidResponseFormat),
		domain.IsKind(err, domain.ErrNoValidData):
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func wrapTransportError(operation string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}
	return domain.WrapError(domain.ErrNetwork, operation, err)
}

func isServerSideStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	default:
		return statusCode >= 500
	}
}
