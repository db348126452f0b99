package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/ports"
	"github.com/kirillkom/document-classifier-client/internal/core/refresh"
	"github.com/kirillkom/document-classifier-client/internal/core/validate"
)

const DefaultPageSize = 10

var _ ports.HistoryView = (*HistoryController)(nil)

// HistoryController owns the paginated document history. TotalPages is only
// ever taken from the server; navigation outside 1..TotalPages is rejected.
type HistoryController struct {
	api       ports.ClassifierService
	fetcher   ports.Fetcher[domain.DocumentPage]
	validator *validate.Validator[domain.DocumentRecord]
	pageSize  int
	logger    *slog.Logger

	mu   sync.Mutex
	page domain.PageState
}

func NewHistoryController(
	api ports.ClassifierService,
	fetcher ports.Fetcher[domain.DocumentPage],
	validator *validate.Validator[domain.DocumentRecord],
	pageSize int,
	logger *slog.Logger,
) *HistoryController {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryController{
		api:       api,
		fetcher:   fetcher,
		validator: validator,
		pageSize:  pageSize,
		logger:    logger.With("component", "history"),
		page:      domain.NewPageState(),
	}
}

// RequestPage moves to page and fetches it. An out of range page leaves the
// current state untouched and returns ErrPageOutOfRange.
func (c *HistoryController) RequestPage(ctx context.Context, page int) error {
	c.mu.Lock()
	if !c.page.Contains(page) {
		total := c.page.TotalPages
		c.mu.Unlock()
		c.logger.Info("page_rejected", "requested", page, "total_pages", total)
		return domain.WrapError(domain.ErrPageOutOfRange, "request page",
			fmt.Errorf("page %d is outside 1..%d", page, total))
	}
	c.page.CurrentPage = page
	c.mu.Unlock()

	return c.load(ctx, false)
}

func (c *HistoryController) NextPage(ctx context.Context) error {
	return c.RequestPage(ctx, c.Page().CurrentPage+1)
}

func (c *HistoryController) PrevPage(ctx context.Context) error {
	return c.RequestPage(ctx, c.Page().CurrentPage-1)
}

// Refresh re-fetches the current page.
func (c *HistoryController) Refresh(ctx context.Context) error {
	return c.load(ctx, false)
}

// Retry is the manual "try again" action for the current page.
func (c *HistoryController) Retry(ctx context.Context) error {
	return c.load(ctx, true)
}

func (c *HistoryController) Page() domain.PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *HistoryController) State() domain.FetchState[domain.DocumentPage] {
	return c.fetcher.State()
}

// Watch re-fetches the current page on every refresh token change until ctx
// is done.
func (c *HistoryController) Watch(ctx context.Context, token *refresh.Token) {
	watchToken(ctx, token, c.logger, c.Refresh)
}

func (c *HistoryController) Close() {
	c.fetcher.Stop()
}

func (c *HistoryController) load(ctx context.Context, manual bool) error {
	page := c.Page().CurrentPage
	op := func(ctx context.Context) (domain.DocumentPage, error) {
		return c.fetchPage(ctx, page)
	}

	var (
		result domain.DocumentPage
		err    error
	)
	if manual {
		result, err = c.fetcher.Retry(ctx, op)
	} else {
		result, err = c.fetcher.Execute(ctx, op)
	}
	if err != nil {
		if !isAbandoned(err) {
			c.logger.Warn("history_fetch_failed", "page", page, "error", err)
		}
		return err
	}

	// The server may report fewer pages than before, e.g. after documents
	// were removed. Land on the last page that exists and fetch it once.
	c.mu.Lock()
	c.page.TotalPages = result.TotalPages
	reload := c.page.CurrentPage > c.page.TotalPages
	if reload {
		c.page.CurrentPage = c.page.TotalPages
	}
	c.mu.Unlock()

	if reload {
		c.logger.Info("page_shrunk", "page", page, "total_pages", result.TotalPages)
		return c.load(ctx, false)
	}
	return nil
}

func (c *HistoryController) fetchPage(ctx context.Context, page int) (domain.DocumentPage, error) {
	raw, err := c.api.ListDocuments(ctx, page, c.pageSize)
	if err != nil {
		return domain.DocumentPage{}, err
	}

	res, err := c.validator.Validate(raw.Documents)
	if err != nil {
		return domain.DocumentPage{}, err
	}
	if res.Dropped > 0 {
		c.logger.Warn("documents_dropped", "page", page, "dropped", res.Dropped)
	}

	total := raw.TotalPages
	if total < 1 {
		total = 1
	}
	return domain.DocumentPage{
		Page:       page,
		TotalPages: total,
		Documents:  res.Items,
	}, nil
}

func watchToken(ctx context.Context, token *refresh.Token, logger *slog.Logger, reload func(context.Context) error) {
	if token == nil {
		return
	}
	updates, unsubscribe := token.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case value, ok := <-updates:
			if !ok {
				return
			}
			logger.Debug("refresh_token_changed", "value", value)
			if err := reload(ctx); err != nil && !isAbandoned(err) {
				logger.Warn("refresh_failed", "value", value, "error", err)
			}
		}
	}
}

// isAbandoned reports errors of cycles nobody is waiting for anymore.
func isAbandoned(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, domain.ErrSuperseded) ||
		errors.Is(err, domain.ErrStopped)
}
