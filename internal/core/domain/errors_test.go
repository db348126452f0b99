package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestHTTPErrorMatchesStatusKind(t *testing.T) {
	err := fmt.Errorf("list documents: %w", &HTTPError{Operation: "list documents", StatusCode: 502})
	if !IsKind(err, ErrHTTPStatus) {
		t.Fatalf("expected ErrHTTPStatus kind, got %v", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 502 {
		t.Fatalf("expected wrapped *HTTPError, got %v", err)
	}
}

func TestUserMessagePrefersServerText(t *testing.T) {
	err := &HTTPError{Operation: "upload", StatusCode: 400, Message: "File type not allowed"}
	if got := UserMessage(err); got != "File type not allowed" {
		t.Fatalf("unexpected message %q", got)
	}

	err = &HTTPError{Operation: "upload", StatusCode: 500}
	if got := UserMessage(err); got != "The server responded with status 500." {
		t.Fatalf("unexpected fallback message %q", got)
	}
}

func TestUserMessageClassifiesKinds(t *testing.T) {
	cases := map[error]string{
		WrapError(ErrTimeout, "stats", errors.New("i/o timeout")):          "The request timed out. Please try again.",
		WrapError(ErrNetwork, "stats", errors.New("connection refused")):   "Unable to reach the classification service. Check your connection.",
		WrapError(ErrInvalidResponseFormat, "stats", errors.New("object")): "Received data in an unexpected format.",
		WrapError(ErrNoValidData, "stats", errors.New("3 dropped")):        "No valid data was received from the server.",
	}
	for err, want := range cases {
		if got := UserMessage(err); got != want {
			t.Fatalf("UserMessage(%v) = %q, want %q", err, got, want)
		}
	}
	if UserMessage(nil) != "" {
		t.Fatalf("expected empty message for nil error")
	}
}
