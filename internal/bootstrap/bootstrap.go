package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/document-classifier-client/internal/config"
	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/refresh"
	"github.com/kirillkom/document-classifier-client/internal/core/usecase"
	"github.com/kirillkom/document-classifier-client/internal/core/validate"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/classifierapi"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/classifierapi/contract"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/notify"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/resilience"
	"github.com/kirillkom/document-classifier-client/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Dashboard *usecase.Dashboard
	Toaster   *notify.Toaster
	Metrics   *metrics.ClientMetrics
	Breakers  *resilience.Breakers

	logger *slog.Logger
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	wire, err := contract.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load api contract: %w", err)
	}
	documentValidator, err := newValidator(wire, contract.SchemaDocumentRecord, "document", validate.DocumentRecordRule)
	if err != nil {
		return nil, err
	}
	statValidator, err := newValidator(wire, contract.SchemaStatEntry, "stat entry", validate.StatEntryRule)
	if err != nil {
		return nil, err
	}
	categoryValidator, err := newValidator(wire, contract.SchemaCategoryLabel, "category", validate.CategoryRule)
	if err != nil {
		return nil, err
	}
	uploadValidator, err := newValidator(wire, contract.SchemaUploadResponse, "upload response", validate.UploadResponseRule)
	if err != nil {
		return nil, err
	}

	api := classifierapi.New(cfg.APIBaseURL, classifierapi.Options{
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.RateLimitRPS,
		RateBurst: cfg.RateLimitBurst,
	})

	resCfg := resilienceConfig(cfg)
	clientMetrics := metrics.NewClientMetrics("docclassify")
	breakers := resilience.NewBreakers(resCfg)
	fetcherOpts := resilience.FetcherOptions{
		Classifier: classifierapi.ClassifyError,
		Breakers:   breakers,
		Observer:   clientMetrics,
	}

	token := refresh.NewToken()
	toaster := notify.NewToaster(logger, cfg.NotificationHistory)

	dashboard := &usecase.Dashboard{
		History: usecase.NewHistoryController(api,
			resilience.NewFetcher[domain.DocumentPage]("list_documents", resCfg, fetcherOpts),
			documentValidator, cfg.PageSize, logger),
		Stats: usecase.NewStatsController(api,
			resilience.NewFetcher[[]domain.StatEntry]("document_stats", resCfg, fetcherOpts),
			statValidator, logger),
		Categories: usecase.NewCategoryCatalog(api,
			resilience.NewFetcher[[]string]("list_categories", resCfg, fetcherOpts),
			categoryValidator, toaster, logger),
		Classify:  usecase.NewClassifyWorkflow(api, uploadValidator, token, toaster, clientMetrics, logger),
		Downloads: usecase.NewDownloadService(api, toaster, logger),
		Token:     token,
	}

	logger.Info("client_configured",
		"api_base_url", cfg.APIBaseURL,
		"contract_version", wire.Version(),
		"page_size", cfg.PageSize,
		"max_retries", resCfg.MaxRetries,
		"base_delay", resCfg.BaseDelay.String(),
		"breaker_enabled", resCfg.BreakerEnabled,
	)

	return &App{
		Config:    cfg,
		Dashboard: dashboard,
		Toaster:   toaster,
		Metrics:   clientMetrics,
		Breakers:  breakers,
		logger:    logger,
	}, nil
}

// Run keeps the views in step with the refresh token and mirrors the token
// into the metrics gauge until ctx is done.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Dashboard.Watch(gctx)
	})
	g.Go(func() error {
		updates, unsubscribe := a.Dashboard.Token.Subscribe()
		defer unsubscribe()
		for {
			select {
			case <-gctx.Done():
				return nil
			case value, ok := <-updates:
				if !ok {
					return nil
				}
				a.Metrics.SetRefreshToken(value)
			}
		}
	})
	return g.Wait()
}

func (a *App) Close() {
	a.Dashboard.Close()
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		MaxRetries:              cfg.RetryMaxRetries,
		BaseDelay:               cfg.RetryBaseDelay,
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.BreakerHalfOpenMaxCalls, 0)),
	}
}

func newValidator[T any](wire *contract.Contract, schemaName, kind string, rule validate.Rule[T]) (*validate.Validator[T], error) {
	schema, err := wire.Schema(schemaName)
	if err != nil {
		return nil, fmt.Errorf("load %s schema: %w", kind, err)
	}
	return validate.New(kind, schema, rule), nil
}
