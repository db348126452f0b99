package classifierapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/resilience"
)

func TestListDocumentsSendsPagingQuery(t *testing.T) {
	var gotPage, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/" {
			http.NotFound(w, r)
			return
		}
		gotPage = r.URL.Query().Get("page")
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"documents":[{"id":1,"filename":"a.txt","classification":"General Article","confidence":51.5}],"totalPages":4}`))
	}))
	defer server.Close()

	client := New(server.URL+"/", Options{})
	page, err := client.ListDocuments(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if gotPage != "2" || gotLimit != "10" {
		t.Fatalf("unexpected query page=%q limit=%q", gotPage, gotLimit)
	}
	if page.TotalPages != 4 {
		t.Fatalf("expected 4 total pages, got %d", page.TotalPages)
	}
	if !strings.HasPrefix(string(page.Documents), "[") {
		t.Fatalf("expected raw documents array, got %s", page.Documents)
	}
}

func TestUploadDocumentSendsMultipartFile(t *testing.T) {
	var gotName, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		gotName = header.Filename
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"filename":"contract.pdf","classification":"Legal Document","confidence":0.82,"all_scores":{"Legal Document":0.82,"General Article":0.1},"s3_url":"https://b/documents/x"}`))
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	raw, err := client.UploadDocument(context.Background(), "/tmp/contract.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}
	if gotName != "contract.pdf" || gotBody != "%PDF-1.4" {
		t.Fatalf("unexpected upload name=%q body=%q", gotName, gotBody)
	}
	var doc domain.DocumentRecord
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if doc.Classification != "Legal Document" || doc.AllScores["Legal Document"] != 0.82 {
		t.Fatalf("unexpected document %#v", doc)
	}
}

func TestNon2xxUsesServerErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"File type not allowed"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, Options{}).UploadDocument(context.Background(), "a.exe", strings.NewReader("x"))
	var httpErr *domain.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *domain.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest || httpErr.Message != "File type not allowed" {
		t.Fatalf("unexpected http error %#v", httpErr)
	}
	if domain.UserMessage(err) != "File type not allowed" {
		t.Fatalf("unexpected user message %q", domain.UserMessage(err))
	}
}

func TestNon2xxWithoutBodyFallsBackToGenericMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, Options{}).DocumentStats(context.Background())
	var httpErr *domain.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *domain.HTTPError, got %v", err)
	}
	if httpErr.Message != "" {
		t.Fatalf("expected no server message for plain text body, got %q", httpErr.Message)
	}
	if !domain.IsKind(err, domain.ErrHTTPStatus) {
		t.Fatalf("expected ErrHTTPStatus kind")
	}
}

func TestMalformedBodyIsInvalidFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := New(server.URL, Options{}).ListCategories(context.Background())
	if !domain.IsKind(err, domain.ErrInvalidResponseFormat) {
		t.Fatalf("expected ErrInvalidResponseFormat, got %v", err)
	}
}

func TestDocumentStatsUnwrapsDataField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/stats" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","data":[{"classification":"A","confidence":80}]}`))
	}))
	defer server.Close()

	raw, err := New(server.URL, Options{}).DocumentStats(context.Background())
	if err != nil {
		t.Fatalf("DocumentStats() error = %v", err)
	}
	if !strings.Contains(string(raw), `"classification":"A"`) {
		t.Fatalf("unexpected data %s", raw)
	}
}

func TestDownloadURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/17/download" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"download_url":"https://signed.example/x?sig=1"}`))
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	link, err := client.DownloadURL(context.Background(), "17")
	if err != nil {
		t.Fatalf("DownloadURL() error = %v", err)
	}
	if link != "https://signed.example/x?sig=1" {
		t.Fatalf("unexpected link %q", link)
	}

	if _, err := client.DownloadURL(context.Background(), "18"); !domain.IsKind(err, domain.ErrHTTPStatus) {
		t.Fatalf("expected status error for unknown id, got %v", err)
	}
}

func TestConnectionFailureIsNetworkError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	_, err = New("http://"+addr, Options{}).ListCategories(context.Background())
	if !domain.IsKind(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if !ClassifyError(err).Retryable {
		t.Fatalf("expected network error to be retryable")
	}
}

func TestClientTimeoutIsTimeoutError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := New(server.URL, Options{Timeout: 20 * time.Millisecond}).ListCategories(context.Background())
	if !domain.IsKind(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"server error", &domain.HTTPError{StatusCode: 503}, true, true},
		{"client error", &domain.HTTPError{StatusCode: 404}, true, false},
		{"invalid format", domain.WrapError(domain.ErrInvalidResponseFormat, "x", errors.New("obj")), true, true},
		{"no valid data", domain.WrapError(domain.ErrNoValidData, "x", errors.New("none")), true, true},
		{"timeout", domain.WrapError(domain.ErrTimeout, "x", errors.New("slow")), true, true},
		{"canceled", context.Canceled, false, false},
		{"superseded", domain.ErrSuperseded, false, false},
		{"unknown", errors.New("boom"), false, true},
	}
	for _, tc := range cases {
		got := ClassifyError(tc.err)
		if got.Retryable != tc.retryable || got.RecordFailure != tc.record {
			t.Fatalf("%s: got %+v", tc.name, got)
		}
	}
	if got := ClassifyError(nil); got != (resilience.ErrorClassification{}) {
		t.Fatalf("expected zero classification for nil, got %+v", got)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := New(server.URL, Options{RateLimit: 0.001, RateBurst: 1})
	if _, err := client.ListCategories(context.Background()); err != nil {
		t.Fatalf("first call should use the burst token, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := client.ListCategories(ctx); err == nil {
		t.Fatalf("expected limiter to refuse a call it cannot serve before the deadline")
	}
}
