package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/ports"
	"github.com/kirillkom/document-classifier-client/internal/core/validate"
)

// CategoryCatalog holds the labels the service can assign. The result view
// uses it to list categories the classifier scored at 0.
type CategoryCatalog struct {
	api       ports.ClassifierService
	fetcher   ports.Fetcher[[]string]
	validator *validate.Validator[string]
	notifier  ports.Notifier
	logger    *slog.Logger
}

func NewCategoryCatalog(
	api ports.ClassifierService,
	fetcher ports.Fetcher[[]string],
	validator *validate.Validator[string],
	notifier ports.Notifier,
	logger *slog.Logger,
) *CategoryCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryCatalog{
		api:       api,
		fetcher:   fetcher,
		validator: validator,
		notifier:  notifier,
		logger:    logger.With("component", "categories"),
	}
}

func (c *CategoryCatalog) Load(ctx context.Context) ([]string, error) {
	categories, err := c.fetcher.Execute(ctx, func(ctx context.Context) ([]string, error) {
		raw, err := c.api.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		res, err := c.validator.Validate(raw)
		if err != nil {
			return nil, err
		}
		return res.Items, nil
	})
	if err != nil {
		if !isAbandoned(err) {
			c.logger.Warn("categories_fetch_failed", "error", err)
			if c.notifier != nil {
				c.notifier.Error("Failed to load categories. "+domain.UserMessage(err), err)
			}
		}
		return nil, err
	}
	return categories, nil
}

// Categories returns the last loaded catalog.
func (c *CategoryCatalog) Categories() []string {
	return c.fetcher.State().Payload
}

func (c *CategoryCatalog) State() domain.FetchState[[]string] {
	return c.fetcher.State()
}

func (c *CategoryCatalog) Close() {
	c.fetcher.Stop()
}
