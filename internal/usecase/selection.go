package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BeautyBot/internal/domain"
	"BeautyBot/internal/ports"
)

// SelectionPolicy acquires candidates and picks at most one product to
// publish for the given day. A nil product with nil error is the normal
// "nothing to publish" outcome.
type SelectionPolicy interface {
	Name() string
	Pick(ctx context.Context, now time.Time, history domain.HistoryRecord) (*domain.Product, error)
}

// FirstUnseenPolicy fetches candidates fresh every run and publishes the
// first one that history has not seen.
type FirstUnseenPolicy struct {
	source ports.ProductSource
	logger *slog.Logger
}

var _ SelectionPolicy = (*FirstUnseenPolicy)(nil)

// NewFirstUnseenPolicy wires the aggregated product source.
func NewFirstUnseenPolicy(source ports.ProductSource, logger *slog.Logger) *FirstUnseenPolicy {
	return &FirstUnseenPolicy{source: source, logger: logger}
}

// Name identifies the policy in logs and config.
func (p *FirstUnseenPolicy) Name() string { return "first_unseen" }

// Pick fetches, deduplicates, and returns the head of the fresh list.
func (p *FirstUnseenPolicy) Pick(ctx context.Context, _ time.Time, history domain.HistoryRecord) (*domain.Product, error) {
	if p.source == nil {
		return nil, fmt.Errorf("product source is not configured")
	}

	candidates, err := p.source.FetchCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	fresh := FilterUnseen(candidates, history)
	p.debug("candidates filtered", "total", len(candidates), "fresh", len(fresh))

	if len(fresh) == 0 {
		return nil, nil
	}
	pick := fresh[0]
	return &pick, nil
}

func (p *FirstUnseenPolicy) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

// WeekdayIndexedPolicy publishes batch[weekday] from a weekly batch that
// is refreshed on Monday and cached for the rest of the week. The batch
// is assumed unique per week, so it bypasses the dedup filter.
type WeekdayIndexedPolicy struct {
	researcher ports.Researcher
	cache      ports.BatchCache
	logger     *slog.Logger
}

var _ SelectionPolicy = (*WeekdayIndexedPolicy)(nil)

// NewWeekdayIndexedPolicy wires the research client and the batch cache.
func NewWeekdayIndexedPolicy(researcher ports.Researcher, cache ports.BatchCache, logger *slog.Logger) *WeekdayIndexedPolicy {
	return &WeekdayIndexedPolicy{researcher: researcher, cache: cache, logger: logger}
}

// Name identifies the policy in logs and config.
func (p *WeekdayIndexedPolicy) Name() string { return "weekday_indexed" }

// Pick refreshes the batch on Monday, otherwise reads the cached one,
// and indexes it by weekday ordinal (Monday = 0). Weekends and ordinals
// beyond the batch length yield no selection. A failed refresh leaves
// the previously cached batch authoritative.
func (p *WeekdayIndexedPolicy) Pick(ctx context.Context, now time.Time, _ domain.HistoryRecord) (*domain.Product, error) {
	ordinal := weekdayOrdinal(now)
	if ordinal < 0 {
		return nil, nil
	}

	batch := p.currentBatch(ctx, ordinal)
	if ordinal >= len(batch) {
		p.debug("ordinal beyond batch", "ordinal", ordinal, "batch_len", len(batch))
		return nil, nil
	}

	pick := batch[ordinal]
	if pick.DedupKey() == "" {
		return nil, nil
	}
	return &pick, nil
}

func (p *WeekdayIndexedPolicy) currentBatch(ctx context.Context, ordinal int) []domain.Product {
	if ordinal == 0 && p.researcher != nil {
		fresh, err := p.researcher.FetchWeeklyBatch(ctx)
		switch {
		case err != nil:
			p.warn("weekly refresh failed, keeping cached batch", "error", err)
		case len(fresh) == 0:
			p.warn("weekly refresh returned no products, keeping cached batch")
		default:
			if p.cache != nil {
				if err := p.cache.Save(ctx, fresh); err != nil {
					p.warn("cannot cache weekly batch", "error", err)
				}
			}
			return fresh
		}
	}

	if p.cache == nil {
		return nil
	}
	cached, err := p.cache.Load(ctx)
	if err != nil {
		p.warn("cannot load cached batch", "error", err)
		return nil
	}
	return cached
}

func (p *WeekdayIndexedPolicy) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *WeekdayIndexedPolicy) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

// weekdayOrdinal maps Monday..Friday to 0..4 and weekends to -1.
func weekdayOrdinal(now time.Time) int {
	switch wd := now.Weekday(); wd {
	case time.Saturday, time.Sunday:
		return -1
	default:
		return int(wd) - 1
	}
}
