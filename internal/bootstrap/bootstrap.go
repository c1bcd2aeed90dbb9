package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/deck-pipeline/internal/config"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
	"github.com/kirillkom/deck-pipeline/internal/core/usecase"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/chart/pngchart"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/extractor/htmlmd"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/llm/cache"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/llm/devllm"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/presentation/brand"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/presentation/pptx"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/queue/nats"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/resilience"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/spreadsheet/excel"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/deck-pipeline/internal/observability/metrics"
)

type Options struct {
	Service string
	Logger  *slog.Logger
	// Registerer receives the pipeline metrics; nil keeps them in a private registry.
	Registerer prometheus.Registerer
	// Generator overrides the configured LLM provider.
	Generator ports.TextGenerator
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Workspace *localfs.Workspace
	Queue     *nats.Queue
	Metrics   *metrics.PipelineMetrics

	Pipeline  *usecase.PipelineUseCase
	Uploader  ports.DocumentUploader
	Artifacts ports.ArtifactRetriever
	// Runs is nil when no run ledger is configured.
	Runs ports.RunReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	service := opts.Service
	if service == "" {
		service = "deck-pipeline"
	}
	registerer := opts.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	pipelineMetrics := metrics.NewPipelineMetrics(service, registerer)

	workspace, err := localfs.New(cfg.ProjectsRoot)
	if err != nil {
		return nil, fmt.Errorf("init project workspace: %w", err)
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var ledger ports.RunLedger
	var runs ports.RunReader
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		repo, err := openRunRepository(ctx, db)
		if err != nil {
			closeAll()
			return nil, err
		}
		ledger, runs = repo, repo
	}

	var queue *nats.Queue
	var notifier ports.RunNotifier
	if strings.TrimSpace(cfg.NATSURL) != "" {
		publishCfg := resilienceConfig(cfg)
		publishCfg.RatePerSecond = 0
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSRunSubject, cfg.NATSCompletedSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(publishCfg, resilience.WithLogger(logger), resilience.WithObserver(pipelineMetrics)),
			Logger:             logger,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		closers = append(closers, queue.Close)
		notifier = queue
	}

	generator := opts.Generator
	if generator == nil {
		generator, err = newGenerator(cfg, logger, pipelineMetrics)
		if err != nil {
			closeAll()
			return nil, err
		}
	}

	standardizer := usecase.NewStandardizeUseCase(workspace, Extractors())
	financials := usecase.NewFinancialsUseCase(workspace, excel.NewReader())
	pipeline := usecase.NewPipelineUseCase(usecase.PipelineDeps{
		Workspace:       workspace,
		Standardizer:    standardizer,
		Insights:        usecase.NewInsightsUseCase(workspace),
		Analysis:        usecase.NewAnalysisUseCase(workspace, generator),
		Financials:      financials,
		Charts:          pngchart.NewRenderer(),
		Deck:            usecase.NewDeckUseCase(workspace, financials),
		Slides:          usecase.NewSlidesUseCase(workspace, brand.NewLoader(cfg.BrandTemplatePath), pptx.NewWriter(pptx.WithRoot(workspace.Root()))),
		Ledger:          ledger,
		Notifier:        notifier,
		Observer:        pipelineMetrics,
		Logger:          logger,
		DefaultAudience: cfg.DefaultAudience,
	})
	purges := usecase.NewPurgeScheduler(workspace, cfg.PurgeDelay, pipelineMetrics, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Workspace: workspace,
		Queue:     queue,
		Metrics:   pipelineMetrics,
		Pipeline:  pipeline,
		Uploader:  usecase.NewUploadUseCase(workspace),
		Artifacts: usecase.NewArtifactUseCase(workspace, purges),
		Runs:      runs,
		closeFn:   closeAll,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Extractors maps lowercase file extensions to the converter that standardizes them.
func Extractors() map[string]ports.TextExtractor {
	text := plaintext.NewExtractor()
	html := htmlmd.NewExtractor()
	return map[string]ports.TextExtractor{
		".md":       text,
		".markdown": text,
		".txt":      text,
		".pdf":      pdftext.NewExtractor(),
		".html":     html,
		".htm":      html,
	}
}

func openRunRepository(ctx context.Context, db *sql.DB) (*postgres.RunRepository, error) {
	repo := postgres.NewRunRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}

func newGenerator(cfg config.Config, logger *slog.Logger, observer resilience.Observer) (ports.TextGenerator, error) {
	var base ports.TextGenerator
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", "dev":
		base = devllm.NewGenerator()
	case "ollama":
		executor := resilience.NewExecutor(resilienceConfig(cfg), resilience.WithLogger(logger), resilience.WithObserver(observer))
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel).WithTimeout(cfg.LLMRequestTimeout)
		base = ollama.NewGenerator(client, executor)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
	if strings.TrimSpace(cfg.LLMCacheDir) == "" {
		return base, nil
	}
	cached, err := cache.New(base, cfg.LLMCacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init llm cache: %w", err)
	}
	return cached, nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		RetryMaxBackoff:     cfg.RetryMaxBackoff,
		RetryMultiplier:     2.0,

		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: 1,

		RatePerSecond: cfg.LLMRatePerSecond,
		RateBurst:     cfg.LLMBurst,
	}
}
