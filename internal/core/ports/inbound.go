package ports

import (
	"context"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
)

// HistoryView is the paginated document history.
type HistoryView interface {
	RequestPage(ctx context.Context, page int) error
	Refresh(ctx context.Context) error
	Retry(ctx context.Context) error
	Page() domain.PageState
	State() domain.FetchState[domain.DocumentPage]
}

// StatsView is the aggregate statistics panel.
type StatsView interface {
	Refresh(ctx context.Context) error
	Retry(ctx context.Context) error
	State() domain.FetchState[[]domain.StatEntry]
	Summary() domain.StatsSummary
}
