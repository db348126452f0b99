package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetwork               = errors.New("network failure")
	ErrTimeout               = errors.New("request timed out")
	ErrHTTPStatus            = errors.New("unexpected http status")
	ErrInvalidResponseFormat = errors.New("invalid response format")
	ErrNoValidData           = errors.New("no valid data")
	ErrValidation            = errors.New("validation failed")

	ErrPageOutOfRange  = errors.New("page out of range")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrSuperseded      = errors.New("superseded by a newer request")
	ErrStopped         = errors.New("fetcher stopped")
)

// HTTPError is a non-2xx answer from the classification service. Message
// carries the server supplied {"error": "..."} text when present.
type HTTPError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http status error"
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// UserMessage turns an error into the text shown next to a failed view.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		if msg := strings.TrimSpace(httpErr.Message); msg != "" {
			return msg
		}
		return fmt.Sprintf("The server responded with status %d.", httpErr.StatusCode)
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case IsKind(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	case IsKind(err, ErrNetwork):
		return "Unable to reach the classification service. Check your connection."
	case IsKind(err, ErrInvalidResponseFormat):
		return "Received data in an unexpected format."
	case IsKind(err, ErrNoValidData):
		return "No valid data was received from the server."
	case IsKind(err, ErrPageOutOfRange):
		return "That page does not exist."
	case IsKind(err, ErrUnsupportedFile):
		return "File type not allowed. Use .txt, .docx or .pdf."
	default:
		return "Something went wrong. Please try again."
	}
}
