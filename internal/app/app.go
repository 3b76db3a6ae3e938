package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"FocusNews/internal/config"
	"FocusNews/internal/engine"
	"FocusNews/internal/infrastructure/extract"
	"FocusNews/internal/infrastructure/feed"
	"FocusNews/internal/infrastructure/scheduler"
	"FocusNews/internal/infrastructure/storage"
	"FocusNews/internal/infrastructure/telegram"
	"FocusNews/internal/logging"
	"FocusNews/internal/ports"
	"FocusNews/internal/source"
	"FocusNews/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	scheduler *usecase.Scheduler
	queries   *usecase.Queries
}

// New builds a runnable application instance: storage, feed sources, the
// scoring engine, the optional Telegram notifier and the cron scheduler.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.InitSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	repo := storage.NewPostgresRepository(db)

	extractor := extract.New(cfg.Fetch.Timeout())

	registry := source.NewRegistry()
	registry.Register(feed.NewFetcher(nil, extractor, baseLogger.With("component", "source.rss")))

	feeds := feed.NewMultiSource(registry, cfg.Feeds, cfg.Fetch.Workers, cfg.Fetch.Timeout(),
		baseLogger.With("component", "source"))

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	runner := usecase.NewRunner(usecase.RunnerDeps{
		Source:   feeds,
		Articles: repo,
		Rules:    repo,
		Ledger:   repo,
		Engine:   engine.New(engine.DefaultWeights()),
		Notifier: notifier,
		Logger:   baseLogger.With("component", "runner"),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		scheduler: usecase.NewScheduler(driver, runner, cfg.Rules.Path, baseLogger.With("component", "scheduler")),
		queries:   usecase.NewQueries(repo, repo, repo),
	}, nil
}

// Queries exposes the read side to embedding callers.
func (a *Application) Queries() *usecase.Queries {
	return a.queries
}

// RunOnce executes a single fetch-and-score run.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.scheduler.RunOnce(ctx, time.Now().In(a.cfg.Scheduler.Location()))
}

// Run starts the cron schedule and blocks until the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Timezone)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
