package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"BeautyBot/internal/domain"
	"BeautyBot/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Policy     SelectionPolicy
	Copywriter ports.Copywriter
	Notifier   ports.Notifier
	History    ports.HistoryStore
	Lock       ports.RunLock
	Subject    string
	Logger     *slog.Logger
}

// Pipeline implements the discovery-dedup-selection workflow. One call
// to Run is one complete publishing cycle; retry on failure is the
// scheduler's job, never the pipeline's.
type Pipeline struct {
	policy     SelectionPolicy
	copywriter ports.Copywriter
	notifier   ports.Notifier
	history    ports.HistoryStore
	lock       ports.RunLock
	subject    string
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		policy:     deps.Policy,
		copywriter: deps.Copywriter,
		notifier:   deps.Notifier,
		history:    deps.History,
		lock:       deps.Lock,
		subject:    deps.Subject,
		logger:     deps.Logger,
	}
}

// Run executes one publishing cycle for the given day and always ends
// in a terminal outcome. History is mutated and persisted only after
// the notifier confirms delivery, so a failed run can be retried by the
// next scheduled invocation without double-publishing.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (outcome domain.Outcome) {
	logger := p.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Failed("pipeline", fmt.Errorf("panic: %v", r))
			logger.Error("pipeline panicked", "panic", r)
		}
	}()

	if p.lock != nil {
		release, err := p.lock.Acquire(ctx)
		if errors.Is(err, ports.ErrLockHeld) {
			logger.Warn("run already in progress, skipping")
			return domain.NothingToPublish("run already in progress")
		}
		if err != nil {
			return domain.Failed("acquire lock", err)
		}
		defer release()
	}

	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		logger.Info("non-publishing day, skipping", "weekday", wd.String())
		return domain.NothingToPublish("non-publishing day")
	}

	if p.policy == nil {
		return domain.Failed("select", fmt.Errorf("selection policy is not configured"))
	}

	var history domain.HistoryRecord
	if p.history != nil {
		history = p.history.Load(ctx)
	}

	pick, err := p.policy.Pick(ctx, now, history)
	if err != nil {
		return domain.Failed("select", err)
	}
	if pick == nil {
		logger.Info("nothing to publish today", "policy", p.policy.Name())
		return domain.NothingToPublish("no fresh product")
	}
	logger.Info("product selected", "title", pick.Title, "source", pick.Source)

	if p.copywriter == nil {
		return domain.Failed("generate", fmt.Errorf("copywriter is not configured"))
	}
	body, err := p.copywriter.Compose(ctx, *pick)
	if err != nil {
		return domain.Failed("generate", err)
	}

	if p.notifier == nil {
		return domain.Failed("notify", fmt.Errorf("notifier is not configured"))
	}
	if err := p.notifier.Send(ctx, p.subject, body); err != nil {
		return domain.Failed("notify", err)
	}
	logger.Info("newsletter delivered", "title", pick.Title)

	history.Append(pick.DedupKey())
	runAt := now
	history.LastRun = &runAt
	if p.history != nil {
		if err := p.history.Save(ctx, history); err != nil {
			logger.Error("history not persisted after delivery", "error", err)
			return domain.Failed("commit", err)
		}
	}

	return domain.Published(*pick)
}
