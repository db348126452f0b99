package ports

import (
	"context"
	"encoding/json"
	"io"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
)

// ClassifierService is the remote classification and storage service.
// Endpoints with a body return raw JSON so callers validate it against the
// contract.
type ClassifierService interface {
	ListCategories(ctx context.Context) (json.RawMessage, error)
	UploadDocument(ctx context.Context, filename string, body io.Reader) (json.RawMessage, error)
	ListDocuments(ctx context.Context, page, limit int) (domain.RawDocumentPage, error)
	DownloadURL(ctx context.Context, id domain.DocumentID) (string, error)
	DocumentStats(ctx context.Context) (json.RawMessage, error)
}

// Fetcher runs a retryable read and owns its FetchState.
type Fetcher[T any] interface {
	Execute(ctx context.Context, op func(context.Context) (T, error)) (T, error)
	Retry(ctx context.Context, op func(context.Context) (T, error)) (T, error)
	State() domain.FetchState[T]
	Stop()
}

// Notifier shows transient messages for one-shot actions.
type Notifier interface {
	Success(message string)
	Error(message string, err error)
}

// ClassifyObserver receives classify workflow telemetry.
type ClassifyObserver interface {
	StartClassify()
	FinishClassify(err error)
}
