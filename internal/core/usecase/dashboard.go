package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/refresh"
)

// Dashboard composes every view of the client around one refresh token.
type Dashboard struct {
	History    *HistoryController
	Stats      *StatsController
	Categories *CategoryCatalog
	Classify   *ClassifyWorkflow
	Downloads  *DownloadService
	Token      *refresh.Token
}

// Snapshot is what a presentation layer renders.
type Snapshot struct {
	History      domain.FetchState[domain.DocumentPage] `json:"history"`
	Page         domain.PageState                       `json:"page"`
	Stats        domain.FetchState[[]domain.StatEntry]  `json:"stats"`
	Summary      domain.StatsSummary                    `json:"summary"`
	Categories   []string                               `json:"categories"`
	Result       *domain.ClassificationResult           `json:"result,omitempty"`
	Scores       []ScoreRow                             `json:"scores,omitempty"`
	Busy         bool                                   `json:"busy"`
	RefreshToken uint64                                 `json:"refresh_token"`
}

// Refresh loads history, stats and the category catalog concurrently. Each
// view keeps its own error state, so one failure does not cancel the others;
// the first error is returned.
func (d *Dashboard) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return d.History.Refresh(ctx) })
	g.Go(func() error { return d.Stats.Refresh(ctx) })
	g.Go(func() error {
		_, err := d.Categories.Load(ctx)
		return err
	})
	return g.Wait()
}

// Watch keeps history and stats in step with the refresh token until ctx is
// done.
func (d *Dashboard) Watch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.History.Watch(gctx, d.Token)
		return nil
	})
	g.Go(func() error {
		d.Stats.Watch(gctx, d.Token)
		return nil
	})
	return g.Wait()
}

func (d *Dashboard) Snapshot() Snapshot {
	snap := Snapshot{
		History:      d.History.State(),
		Page:         d.History.Page(),
		Stats:        d.Stats.State(),
		Summary:      d.Stats.Summary(),
		Categories:   d.Categories.Categories(),
		Busy:         d.Classify.Busy(),
		RefreshToken: d.Token.Value(),
	}
	if result, ok := d.Classify.Result(); ok {
		snap.Result = &result
		snap.Scores = RankScores(snap.Categories, result.AllScores)
	}
	return snap
}

func (d *Dashboard) Close() {
	d.History.Close()
	d.Stats.Close()
	d.Categories.Close()
}
