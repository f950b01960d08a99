package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"BeautyBot/internal/config"
	"BeautyBot/internal/domain"
	"BeautyBot/internal/infrastructure/feed"
	"BeautyBot/internal/infrastructure/llm"
	"BeautyBot/internal/infrastructure/mail"
	"BeautyBot/internal/infrastructure/parser"
	"BeautyBot/internal/infrastructure/scheduler"
	"BeautyBot/internal/infrastructure/storage"
	"BeautyBot/internal/logging"
	"BeautyBot/internal/ports"
	"BeautyBot/internal/scanner"
	"BeautyBot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	history := newHistoryStore(cfg, baseLogger)
	policy := newPolicy(cfg, baseLogger)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Policy:     policy,
		Copywriter: llm.NewOpenAIClient(cfg.OpenAI),
		Notifier:   mail.NewSMTPNotifier(cfg.Mail),
		History:    history,
		Lock:       storage.NewFileLock(cfg.History.LockPath, time.Hour),
		Subject:    cfg.Mail.Subject,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline}
}

// Run executes the pipeline: once in "once" mode, or daily until the
// context is cancelled in "daemon" mode. Every terminal outcome,
// including a failed run, returns nil: the process exits non-zero only
// on configuration errors, which are caught before Run.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	if a.cfg.Scheduler.Mode == "daemon" {
		return a.runDaemon(ctx)
	}

	now := time.Now().In(a.cfg.Scheduler.Location())
	outcome := a.pipeline.Run(ctx, now)

	switch outcome.State {
	case domain.StatePublished:
		a.logger.Info("run finished", "state", outcome.State, "title", outcome.Product.Title)
	case domain.StateFailed:
		a.logger.Error("run failed", "step", outcome.Reason, "error", outcome.Err)
	default:
		a.logger.Info("run finished", "state", outcome.State, "reason", outcome.Reason)
	}
	return nil
}

func (a *Application) runDaemon(ctx context.Context) error {
	driver := scheduler.NewDailyScheduler(a.cfg.Scheduler.Hour, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("daemon started", "hour", a.cfg.Scheduler.Hour, "timezone", a.cfg.Scheduler.Timezone)

	<-ctx.Done()
	return sched.Stop(context.Background())
}

func newPolicy(cfg config.Config, baseLogger *slog.Logger) usecase.SelectionPolicy {
	if cfg.Selection.Policy == config.PolicyWeekdayIndexed {
		return usecase.NewWeekdayIndexedPolicy(
			llm.NewPerplexityClient(cfg.Research),
			storage.NewFileBatchCache(cfg.History.BatchPath),
			baseLogger.With("component", "policy.weekday"),
		)
	}

	registry := scanner.NewRegistry()
	registry.Register(feed.NewRSSScanner(nil))
	registry.Register(parser.NewSelectorScanner(nil))

	source := parser.NewStrategySource(registry, cfg.Sites, cfg.Keywords,
		baseLogger.With("component", "source"))
	return usecase.NewFirstUnseenPolicy(source, baseLogger.With("component", "policy.first_unseen"))
}

func newHistoryStore(cfg config.Config, baseLogger *slog.Logger) ports.HistoryStore {
	logger := baseLogger.With("component", "history")

	if cfg.History.Backend == "postgres" && cfg.History.DSN != "" {
		db, err := sql.Open("postgres", cfg.History.DSN)
		if err == nil {
			return storage.NewPostgresHistoryStore(db, logger)
		}
		logger.Warn("cannot open postgres history, using file store", "error", err)
	}

	return storage.NewFileHistoryStore(cfg.History.Path, logger)
}
