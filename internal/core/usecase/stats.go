package usecase

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/ports"
	"github.com/kirillkom/document-classifier-client/internal/core/refresh"
	"github.com/kirillkom/document-classifier-client/internal/core/validate"
)

// Distribution counts entries per label in first-occurrence order.
func Distribution(entries []domain.StatEntry) []domain.LabelCount {
	out := make([]domain.LabelCount, 0)
	index := make(map[string]int)
	for _, entry := range entries {
		if i, ok := index[entry.Classification]; ok {
			out[i].Count++
			continue
		}
		index[entry.Classification] = len(out)
		out = append(out, domain.LabelCount{Label: entry.Classification, Count: 1})
	}
	return out
}

// AverageConfidence is the mean of the finite confidences, or 0 when there
// are none.
func AverageConfidence(entries []domain.StatEntry) float64 {
	sum := 0.0
	n := 0
	for _, entry := range entries {
		if math.IsNaN(entry.Confidence) || math.IsInf(entry.Confidence, 0) {
			continue
		}
		sum += entry.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func Summarize(entries []domain.StatEntry) domain.StatsSummary {
	return domain.StatsSummary{
		Total:             len(entries),
		AverageConfidence: AverageConfidence(entries),
		Distribution:      Distribution(entries),
	}
}

// StatsAggregator memoizes Summarize for the last collection it saw. Stats
// collections are replaced wholesale, never mutated, so slice identity is
// enough to detect a change.
type StatsAggregator struct {
	mu      sync.Mutex
	first   *domain.StatEntry
	length  int
	summary domain.StatsSummary
	valid   bool
}

func (a *StatsAggregator) Summarize(entries []domain.StatEntry) domain.StatsSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	var first *domain.StatEntry
	if len(entries) > 0 {
		first = &entries[0]
	}
	if a.valid && a.first == first && a.length == len(entries) {
		return a.summary
	}

	a.summary = Summarize(entries)
	a.first = first
	a.length = len(entries)
	a.valid = true
	return a.summary
}

var _ ports.StatsView = (*StatsController)(nil)

// StatsController hosts the statistics panel.
type StatsController struct {
	api        ports.ClassifierService
	fetcher    ports.Fetcher[[]domain.StatEntry]
	validator  *validate.Validator[domain.StatEntry]
	aggregator *StatsAggregator
	logger     *slog.Logger
}

func NewStatsController(
	api ports.ClassifierService,
	fetcher ports.Fetcher[[]domain.StatEntry],
	validator *validate.Validator[domain.StatEntry],
	logger *slog.Logger,
) *StatsController {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsController{
		api:        api,
		fetcher:    fetcher,
		validator:  validator,
		aggregator: &StatsAggregator{},
		logger:     logger.With("component", "stats"),
	}
}

func (c *StatsController) Refresh(ctx context.Context) error {
	return c.load(ctx, false)
}

func (c *StatsController) Retry(ctx context.Context) error {
	return c.load(ctx, true)
}

func (c *StatsController) State() domain.FetchState[[]domain.StatEntry] {
	return c.fetcher.State()
}

// Summary is derived from the last successful payload, so it stays visible
// while a refresh is loading.
func (c *StatsController) Summary() domain.StatsSummary {
	return c.aggregator.Summarize(c.fetcher.State().Payload)
}

func (c *StatsController) Watch(ctx context.Context, token *refresh.Token) {
	watchToken(ctx, token, c.logger, c.Refresh)
}

func (c *StatsController) Close() {
	c.fetcher.Stop()
}

func (c *StatsController) load(ctx context.Context, manual bool) error {
	var err error
	if manual {
		_, err = c.fetcher.Retry(ctx, c.fetchStats)
	} else {
		_, err = c.fetcher.Execute(ctx, c.fetchStats)
	}
	if err != nil && !isAbandoned(err) {
		c.logger.Warn("stats_fetch_failed", "error", err)
	}
	return err
}

func (c *StatsController) fetchStats(ctx context.Context) ([]domain.StatEntry, error) {
	raw, err := c.api.DocumentStats(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.validator.Validate(raw)
	if err != nil {
		return nil, err
	}
	if res.Dropped > 0 {
		c.logger.Warn("stat_entries_dropped", "dropped", res.Dropped)
	}
	return res.Items, nil
}
