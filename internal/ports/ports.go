package ports

import (
	"context"
	"errors"
	"time"

	"BeautyBot/internal/domain"
)

// ErrLockHeld is returned by RunLock.Acquire when another run is in
// progress.
var ErrLockHeld = errors.New("another run holds the lock")

// ProductSource pulls candidate products from upstream discovery sources.
// Implementations isolate per-source failures: a broken source contributes
// zero products and must not abort its siblings.
type ProductSource interface {
	FetchCandidates(ctx context.Context) ([]domain.Product, error)
}

// HistoryStore persists published dedup keys across runs. Load never
// fails: missing or corrupt state yields a fresh default record.
type HistoryStore interface {
	Load(ctx context.Context) domain.HistoryRecord
	Save(ctx context.Context, record domain.HistoryRecord) error
}

// BatchCache persists the weekly product batch between refresh days.
type BatchCache interface {
	Load(ctx context.Context) ([]domain.Product, error)
	Save(ctx context.Context, batch []domain.Product) error
}

// Researcher fetches a fresh weekly batch from a research API.
type Researcher interface {
	FetchWeeklyBatch(ctx context.Context) ([]domain.Product, error)
}

// Copywriter turns one selected product into newsletter copy.
type Copywriter interface {
	Compose(ctx context.Context, product domain.Product) (string, error)
}

// Notifier delivers finished copy to the configured recipients.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// RunLock guards the load-to-commit critical section against
// overlapping scheduler invocations. Acquire returns a release func.
type RunLock interface {
	Acquire(ctx context.Context) (func(), error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
