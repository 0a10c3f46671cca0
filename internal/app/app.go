// Package app wires configuration, storage, the enrichment pipeline and the review
// workflow, and exposes the process run modes:
//
//   - NATS mode: subscribe to the ingestion subject and feed intake
//   - Stdin mode: read JSON-lines tweets from a reader and feed intake
//   - Sweep mode: run only the stale review sweep and catalog refresh
//   - Catalog mode: copy the catalog file into the postgres catalog table
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/catalog"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/llm"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/config"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/analyzer"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/detection"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/filters"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/pipeline"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/response"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/scoring"
	"github.com/lueurxax/code-skeptic-scanner/internal/review"
	db "github.com/lueurxax/code-skeptic-scanner/internal/storage"
	"github.com/lueurxax/code-skeptic-scanner/internal/storage/memstore"
	"github.com/lueurxax/code-skeptic-scanner/internal/storage/redisstore"
)

const (
	logFieldBackend = "backend"
	logFieldSource  = "source"
)

// reviewBackend is a review store that can also list open items for restore.
type reviewBackend interface {
	ports.ReviewStore
	ports.OpenLister
}

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg    *config.Config
	logger *zerolog.Logger

	database *db.DB
	store    reviewBackend
	catalog  ports.CatalogStore
	closers  []func()
	health   *observability.Server

	pipeline *pipeline.Pipeline
	workflow *review.Workflow
	intake   *pipeline.Intake
}

// New builds every component. The review queue is restored from storage before it is
// returned, so open items survive restarts on persistent backends.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		health: observability.NewServer(cfg.HealthPort, logger),
	}

	if err := a.initStorage(ctx); err != nil {
		a.Close()

		return nil, err
	}

	a.initCatalog()

	if err := a.initPipeline(ctx); err != nil {
		a.Close()

		return nil, err
	}

	if err := a.initReview(ctx); err != nil {
		a.Close()

		return nil, err
	}

	a.intake = pipeline.NewIntake(a.pipeline, a.newDrafter(), response.NewFormatter(cfg.MaxResponseLength, cfg.ForbiddenWords), a.workflow, logger)

	return a, nil
}

// Close releases storage connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.closers = nil
}

// Pipeline returns the enrichment pipeline, for runtime threshold updates.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }

// Workflow returns the review workflow.
func (a *App) Workflow() *review.Workflow { return a.workflow }

// Intake returns the tweet entry point.
func (a *App) Intake() *pipeline.Intake { return a.intake }

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	return a.health.Start(ctx)
}

func (a *App) initStorage(ctx context.Context) error {
	if a.cfg.StorageBackend == config.StoragePostgres || a.cfg.CatalogSource == config.CatalogPostgres {
		database, err := db.New(ctx, a.cfg.PostgresDSN, a.logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		a.closers = append(a.closers, database.Close)
		a.database = database

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		a.health.AddCheck("postgres", database)
	}

	switch a.cfg.StorageBackend {
	case config.StoragePostgres:
		a.store = db.NewReviewStore(a.database)
	case config.StorageRedis:
		client, err := redisstore.Connect(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		if err != nil {
			return err
		}

		a.closers = append(a.closers, func() { _ = client.Close() })
		a.store = redisstore.New(client, a.cfg.DecidedReviewTTL, a.logger)
		a.health.AddCheck("redis", observability.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	default:
		a.store = memstore.New()
	}

	a.logger.Info().Str(logFieldBackend, a.cfg.StorageBackend).Msg("review storage ready")

	return nil
}

func (a *App) initCatalog() {
	switch a.cfg.CatalogSource {
	case config.CatalogPostgres:
		a.catalog = db.NewCatalogStore(a.database)
	default:
		a.catalog = catalog.NewFileStore(a.cfg.ToolCatalogPath)
	}
}

func (a *App) initPipeline(ctx context.Context) error {
	th := a.cfg.Thresholds()

	popularity, err := filters.NewPopularity(th.Popularity, a.logger)
	if err != nil {
		return fmt.Errorf("popularity filter: %w", err)
	}

	content, err := filters.NewContent(th.Content, a.logger)
	if err != nil {
		return fmt.Errorf("content filter: %w", err)
	}

	textAnalyzer := analyzer.New(a.logger)

	scorer, err := scoring.New(th.Scoring, textAnalyzer, a.logger)
	if err != nil {
		return fmt.Errorf("doubt scorer: %w", err)
	}

	entries, err := a.catalog.LoadToolCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load tool catalog: %w", err)
	}

	detector, err := detection.New(entries, th.FuzzyMatchThreshold, a.logger)
	if err != nil {
		return fmt.Errorf("tool detector: %w", err)
	}

	a.logger.Info().Str(logFieldSource, a.cfg.CatalogSource).Int("tools", len(entries)).Msg("tool catalog loaded")

	a.pipeline, err = pipeline.New(pipeline.Stages{
		Popularity: popularity,
		Content:    content,
		Analyzer:   textAnalyzer,
		Scorer:     scorer,
		Detector:   detector,
	}, th.KeywordLimit, a.logger)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	return nil
}

func (a *App) initReview(ctx context.Context) error {
	queue, err := review.NewQueue(a.cfg.MaxQueueSize)
	if err != nil {
		return fmt.Errorf("review queue: %w", err)
	}

	a.workflow = review.NewWorkflow(queue, a.store, a.logger)

	if _, err := a.workflow.Restore(ctx); err != nil {
		return fmt.Errorf("restore review queue: %w", err)
	}

	return nil
}

func (a *App) newDrafter() ports.Drafter {
	if !a.cfg.LLMEnabled() {
		a.logger.Info().Msg("LLM_API_KEY not set, drafting responses from templates")

		return response.TemplateDrafter{}
	}

	primary := llm.NewDrafter(llm.Config{
		APIKey:       a.cfg.LLMAPIKey,
		Model:        a.cfg.LLMModel,
		BaseURL:      a.cfg.LLMBaseURL,
		RateLimitRPS: a.cfg.LLMRateLimitRPS,
		Timeout:      a.cfg.LLMTimeout,
	}, a.logger)

	return response.NewFallbackDrafter(primary, nil, a.logger)
}
