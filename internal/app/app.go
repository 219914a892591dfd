package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	tworkflow "go.temporal.io/sdk/workflow"

	"NewsGenerator/internal/config"
	"NewsGenerator/internal/infrastructure/dataforseo"
	"NewsGenerator/internal/infrastructure/llm"
	"NewsGenerator/internal/infrastructure/serper"
	"NewsGenerator/internal/infrastructure/storage"
	"NewsGenerator/internal/infrastructure/telegram"
	"NewsGenerator/internal/infrastructure/zep"
	"NewsGenerator/internal/logging"
	"NewsGenerator/internal/ports"
	"NewsGenerator/internal/provider"
	"NewsGenerator/internal/workflow"
)

// Application wires configuration to adapters and the Temporal worker.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	activities *workflow.Activities
}

// New builds a runnable worker application. Optional collaborators that are
// not configured stay nil; their activities degrade instead of failing.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	registry := provider.NewRegistry()
	if cfg.Providers.DataForSEO.Login != "" {
		registry.Register(dataforseo.NewClient(cfg.Providers.DataForSEO))
	}
	if cfg.Providers.Serper.APIKey != "" {
		registry.Register(serper.NewClient(cfg.Providers.Serper))
	}
	if len(registry.Names()) == 0 {
		return nil, fmt.Errorf("no news providers configured")
	}

	aggregator := provider.NewAggregator(registry, baseLogger.With("component", "aggregator"))

	var store ports.ArticleStore
	if cfg.Database.DSN != "" {
		pg, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open article store: %w", err)
		}
		store = pg
	} else {
		baseLogger.Warn("article store not configured, recent-article dedup will degrade")
	}

	var graph ports.KnowledgeGraph
	if cfg.Zep.APIKey != "" {
		graph = zep.NewClient(cfg.Zep)
	} else {
		baseLogger.Warn("knowledge graph not configured, enrichment will degrade")
	}

	if cfg.Assessor.APIKey == "" {
		return nil, fmt.Errorf("assessor API key is not configured")
	}
	assessor := llm.NewBatchAssessor(cfg.Assessor)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		activities: &workflow.Activities{
			Aggregator: aggregator,
			Store:      store,
			Graph:      graph,
			Assessor:   assessor,
			Notifier:   notifier,
			Domains:    cfg.Domains,
		},
	}, nil
}

// Connect dials the Temporal service described by the configuration.
func Connect(cfg config.TemporalConfig, baseLogger *slog.Logger) (client.Client, error) {
	options := client.Options{
		HostPort:  cfg.Address,
		Namespace: cfg.Namespace,
		Logger:    logging.NewTemporalLogger(baseLogger),
	}

	if cfg.APIKey != "" {
		options.Credentials = client.NewAPIKeyStaticCredentials(cfg.APIKey)
		options.ConnectionOptions = client.ConnectionOptions{
			TLS: &tls.Config{},
		}
	}

	return client.Dial(options)
}

// Run registers the workflow and activities and blocks until the worker is
// interrupted or the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	c, err := Connect(a.cfg.Temporal, a.logger)
	if err != nil {
		return fmt.Errorf("connect temporal: %w", err)
	}
	defer c.Close()

	w := worker.New(c, a.cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(workflow.NewsCreationWorkflow, tworkflow.RegisterOptions{
		Name: workflow.NewsCreationWorkflowName,
	})
	w.RegisterActivity(a.activities)

	a.logger.Info("worker starting",
		"task_queue", a.cfg.Temporal.TaskQueue,
		"namespace", a.cfg.Temporal.Namespace,
		"domains", len(a.cfg.Domains))

	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("run worker: %w", err)
	}
	return nil
}
