package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/validate"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/classifierapi"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/classifierapi/contract"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/resilience"
)

var errNotConfigured = errors.New("not configured")

type classifierFake struct {
	mu    sync.Mutex
	calls map[string]int
	pages []int

	categories func(ctx context.Context) (json.RawMessage, error)
	upload     func(ctx context.Context, filename string, body io.Reader) (json.RawMessage, error)
	documents  func(ctx context.Context, page, limit int) (domain.RawDocumentPage, error)
	download   func(ctx context.Context, id domain.DocumentID) (string, error)
	stats      func(ctx context.Context) (json.RawMessage, error)
}

func (f *classifierFake) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *classifierFake) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *classifierFake) lastPage() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pages) == 0 {
		return 0
	}
	return f.pages[len(f.pages)-1]
}

func (f *classifierFake) ListCategories(ctx context.Context) (json.RawMessage, error) {
	f.record("categories")
	if f.categories == nil {
		return nil, errNotConfigured
	}
	return f.categories(ctx)
}

func (f *classifierFake) UploadDocument(ctx context.Context, filename string, body io.Reader) (json.RawMessage, error) {
	f.record("upload")
	if f.upload == nil {
		return nil, errNotConfigured
	}
	return f.upload(ctx, filename, body)
}

func (f *classifierFake) ListDocuments(ctx context.Context, page, limit int) (domain.RawDocumentPage, error) {
	f.record("documents")
	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()
	if f.documents == nil {
		return domain.RawDocumentPage{}, errNotConfigured
	}
	return f.documents(ctx, page, limit)
}

func (f *classifierFake) DownloadURL(ctx context.Context, id domain.DocumentID) (string, error) {
	f.record("download")
	if f.download == nil {
		return "", errNotConfigured
	}
	return f.download(ctx, id)
}

func (f *classifierFake) DocumentStats(ctx context.Context) (json.RawMessage, error) {
	f.record("stats")
	if f.stats == nil {
		return nil, errNotConfigured
	}
	return f.stats(ctx)
}

type toast struct {
	success bool
	message string
}

type notifierFake struct {
	mu     sync.Mutex
	toasts []toast
}

func (n *notifierFake) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast{success: true, message: message})
}

func (n *notifierFake) Error(message string, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast{message: message})
}

func (n *notifierFake) all() []toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]toast(nil), n.toasts...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func quickConfig(maxRetries int) resilience.Config {
	return resilience.Config{MaxRetries: maxRetries, BaseDelay: time.Millisecond}
}

func fetcherOptions() resilience.FetcherOptions {
	return resilience.FetcherOptions{Classifier: classifierapi.ClassifyError}
}

func documentValidator(t *testing.T) *validate.Validator[domain.DocumentRecord] {
	t.Helper()
	schema, err := contract.MustLoad().Schema(contract.SchemaDocumentRecord)
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	return validate.New("document", schema, validate.DocumentRecordRule)
}

func newHistory(t *testing.T, api *classifierFake, maxRetries int) *HistoryController {
	t.Helper()
	fetcher := resilience.NewFetcher[domain.DocumentPage]("list_documents", quickConfig(maxRetries), fetcherOptions())
	h := NewHistoryController(api, fetcher, documentValidator(t), 10, discardLogger())
	t.Cleanup(h.Close)
	return h
}

func newStats(t *testing.T, api *classifierFake, maxRetries int) *StatsController {
	t.Helper()
	schema, err := contract.MustLoad().Schema(contract.SchemaStatEntry)
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	fetcher := resilience.NewFetcher[[]domain.StatEntry]("document_stats", quickConfig(maxRetries), fetcherOptions())
	s := NewStatsController(api, fetcher, validate.New("stat entry", schema, validate.StatEntryRule), discardLogger())
	t.Cleanup(s.Close)
	return s
}

func newCatalog(t *testing.T, api *classifierFake, notifier *notifierFake) *CategoryCatalog {
	t.Helper()
	fetcher := resilience.NewFetcher[[]string]("list_categories", quickConfig(0), fetcherOptions())
	c := NewCategoryCatalog(api, fetcher, validate.New[string]("category", nil, validate.CategoryRule), notifier, discardLogger())
	t.Cleanup(c.Close)
	return c
}

func textFile(name, content string) domain.PendingFile {
	return domain.PendingFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func pageOf(total int, documents string) func(context.Context, int, int) (domain.RawDocumentPage, error) {
	return func(context.Context, int, int) (domain.RawDocumentPage, error) {
		return domain.RawDocumentPage{Documents: json.RawMessage(documents), TotalPages: total}, nil
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
