package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BeautyBot/internal/domain"
)

func TestPostgresHistoryLoad(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	publishedAt := time.Date(2025, time.November, 5, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT entry, published_at FROM published_history ORDER BY published_at ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"entry", "published_at"}).
			AddRow("glow serum", publishedAt.Add(-24*time.Hour)).
			AddRow("hydra mist", publishedAt))

	store := NewPostgresHistoryStore(db, nil)
	record := store.Load(context.Background())

	assert.Equal(t, []string{"glow serum", "hydra mist"}, record.Entries)
	require.NotNil(t, record.LastRun)
	assert.True(t, publishedAt.Equal(*record.LastRun))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHistoryLoadErrorDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT entry, published_at").WillReturnError(assert.AnError)

	record := NewPostgresHistoryStore(db, nil).Load(context.Background())
	assert.Empty(t, record.Entries)
	assert.Nil(t, record.LastRun)
}

func TestPostgresHistorySaveInsertsOnlyNewEntries(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT entry FROM published_history WHERE entry = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"entry"}).AddRow("glow serum"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO published_history (entry,published_at) VALUES ($1,NOW()) ON CONFLICT (entry) DO NOTHING")).
		WithArgs("hydra mist").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresHistoryStore(db, nil)
	record := domain.HistoryRecord{Entries: []string{"glow serum", "hydra mist"}}
	require.NoError(t, store.Save(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHistorySaveNothingNew(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT entry FROM published_history WHERE entry = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"entry"}).AddRow("glow serum"))

	store := NewPostgresHistoryStore(db, nil)
	record := domain.HistoryRecord{Entries: []string{"glow serum"}}
	require.NoError(t, store.Save(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}
