package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BeautyBot/internal/domain"
)

// Fixed calendar anchors: 2025-11-03 is a Monday.
var (
	monday    = time.Date(2025, time.November, 3, 8, 0, 0, 0, time.UTC)
	thursday  = monday.AddDate(0, 0, 3)
	friday    = monday.AddDate(0, 0, 4)
	saturday  = monday.AddDate(0, 0, 5)
	wednesday = monday.AddDate(0, 0, 2)
)

type fakeSource struct {
	products []domain.Product
	err      error
}

func (f *fakeSource) FetchCandidates(context.Context) ([]domain.Product, error) {
	return f.products, f.err
}

type fakeResearcher struct {
	batch []domain.Product
	err   error
	calls int
}

func (f *fakeResearcher) FetchWeeklyBatch(context.Context) ([]domain.Product, error) {
	f.calls++
	return f.batch, f.err
}

type fakeCache struct {
	batch   []domain.Product
	loadErr error
	saved   [][]domain.Product
	saveErr error
}

func (f *fakeCache) Load(context.Context) ([]domain.Product, error) {
	return f.batch, f.loadErr
}

func (f *fakeCache) Save(_ context.Context, batch []domain.Product) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, batch)
	f.batch = batch
	return nil
}

func TestFirstUnseenPicksHead(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: []domain.Product{
		{Title: "Glow Serum", URL: "u1"},
		{Title: "Hydra Mist", URL: "u2"},
	}}
	policy := NewFirstUnseenPolicy(source, nil)

	pick, err := policy.Pick(context.Background(), wednesday, domain.HistoryRecord{})
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "Glow Serum", pick.Title)
}

func TestFirstUnseenSkipsHistoryEntries(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: []domain.Product{
		{Title: "Glow Serum", URL: "u1"},
		{Title: "Hydra Mist", URL: "u2"},
	}}
	policy := NewFirstUnseenPolicy(source, nil)
	history := domain.HistoryRecord{Entries: []string{"glow serum"}}

	pick, err := policy.Pick(context.Background(), wednesday, history)
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "Hydra Mist", pick.Title)
}

func TestFirstUnseenNothingFresh(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: []domain.Product{{Title: "Glow Serum"}}}
	policy := NewFirstUnseenPolicy(source, nil)
	history := domain.HistoryRecord{Entries: []string{"glow serum"}}

	pick, err := policy.Pick(context.Background(), wednesday, history)
	require.NoError(t, err)
	assert.Nil(t, pick)
}

func TestFirstUnseenSourceError(t *testing.T) {
	t.Parallel()

	policy := NewFirstUnseenPolicy(&fakeSource{err: fmt.Errorf("boom")}, nil)

	pick, err := policy.Pick(context.Background(), wednesday, domain.HistoryRecord{})
	require.Error(t, err)
	assert.Nil(t, pick)
}

func TestWeekdayIndexedMondayRefreshes(t *testing.T) {
	t.Parallel()

	researcher := &fakeResearcher{batch: []domain.Product{
		{Title: "Mon Pick"}, {Title: "Tue Pick"}, {Title: "Wed Pick"},
	}}
	cache := &fakeCache{}
	policy := NewWeekdayIndexedPolicy(researcher, cache, nil)

	pick, err := policy.Pick(context.Background(), monday, domain.HistoryRecord{})
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "Mon Pick", pick.Title)
	assert.Equal(t, 1, researcher.calls)
	require.Len(t, cache.saved, 1)
	assert.Len(t, cache.saved[0], 3)
}

func TestWeekdayIndexedMidweekUsesCache(t *testing.T) {
	t.Parallel()

	researcher := &fakeResearcher{batch: []domain.Product{{Title: "should not be fetched"}}}
	cache := &fakeCache{batch: []domain.Product{
		{Title: "Mon Pick"}, {Title: "Tue Pick"}, {Title: "Wed Pick"},
	}}
	policy := NewWeekdayIndexedPolicy(researcher, cache, nil)

	pick, err := policy.Pick(context.Background(), wednesday, domain.HistoryRecord{})
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "Wed Pick", pick.Title)
	assert.Zero(t, researcher.calls)
}

func TestWeekdayIndexedOrdinalBeyondBatch(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{batch: []domain.Product{{Title: "Mon"}, {Title: "Tue"}}}
	policy := NewWeekdayIndexedPolicy(nil, cache, nil)

	for _, day := range []time.Time{thursday, friday} {
		pick, err := policy.Pick(context.Background(), day, domain.HistoryRecord{})
		require.NoError(t, err)
		assert.Nil(t, pick)
	}
}

func TestWeekdayIndexedWeekend(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{batch: []domain.Product{{Title: "Mon"}}}
	policy := NewWeekdayIndexedPolicy(nil, cache, nil)

	pick, err := policy.Pick(context.Background(), saturday, domain.HistoryRecord{})
	require.NoError(t, err)
	assert.Nil(t, pick)
}

func TestWeekdayIndexedFailedRefreshKeepsCache(t *testing.T) {
	t.Parallel()

	researcher := &fakeResearcher{err: fmt.Errorf("upstream down")}
	cache := &fakeCache{batch: []domain.Product{{Title: "Old Mon Pick"}}}
	policy := NewWeekdayIndexedPolicy(researcher, cache, nil)

	pick, err := policy.Pick(context.Background(), monday, domain.HistoryRecord{})
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "Old Mon Pick", pick.Title)
	assert.Empty(t, cache.saved)
}

func TestWeekdayIndexedEmptyRefreshKeepsCache(t *testing.T) {
	t.Parallel()

	researcher := &fakeResearcher{batch: nil}
	cache := &fakeCache{batch: []domain.Product{{Title: "Old Mon Pick"}}}
	policy := NewWeekdayIndexedPolicy(researcher, cache, nil)

	pick, err := policy.Pick(context.Background(), monday, domain.HistoryRecord{})
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "Old Mon Pick", pick.Title)
	assert.Empty(t, cache.saved)
}

func TestWeekdayOrdinal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, weekdayOrdinal(monday))
	assert.Equal(t, 3, weekdayOrdinal(thursday))
	assert.Equal(t, 4, weekdayOrdinal(friday))
	assert.Equal(t, -1, weekdayOrdinal(saturday))
	assert.Equal(t, -1, weekdayOrdinal(saturday.AddDate(0, 0, 1)))
}
