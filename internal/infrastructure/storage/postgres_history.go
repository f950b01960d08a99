package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"BeautyBot/internal/domain"
	"BeautyBot/internal/ports"
)

// PostgresHistoryStore keeps published dedup keys in Postgres, one row
// per key, for deployments where the state file is inconvenient (e.g.
// several hosts sharing one history).
//
// Schema:
//
//	CREATE TABLE published_history (
//	    entry        TEXT PRIMARY KEY,
//	    published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresHistoryStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ ports.HistoryStore = (*PostgresHistoryStore)(nil)

// NewPostgresHistoryStore wires a sql.DB implementation.
func NewPostgresHistoryStore(db *sql.DB, logger *slog.Logger) *PostgresHistoryStore {
	return &PostgresHistoryStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:  logger,
	}
}

// Load pulls the full ledger into memory. Like the file store, Load
// never fails: any query error is logged and an empty record returned.
func (s *PostgresHistoryStore) Load(ctx context.Context) domain.HistoryRecord {
	if s.db == nil {
		return domain.HistoryRecord{}
	}

	query, args, err := s.builder.
		Select("entry", "published_at").
		From("published_history").
		OrderBy("published_at ASC").
		ToSql()
	if err != nil {
		s.warn("cannot build history query", "error", err)
		return domain.HistoryRecord{}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.warn("cannot load history, starting fresh", "error", err)
		return domain.HistoryRecord{}
	}
	defer rows.Close()

	var record domain.HistoryRecord
	for rows.Next() {
		var entry string
		var publishedAt sql.NullTime
		if err := rows.Scan(&entry, &publishedAt); err != nil {
			s.warn("cannot scan history row, starting fresh", "error", err)
			return domain.HistoryRecord{}
		}
		record.Entries = append(record.Entries, entry)
		if publishedAt.Valid {
			at := publishedAt.Time
			record.LastRun = &at
		}
	}
	if err := rows.Err(); err != nil {
		s.warn("history iteration failed, starting fresh", "error", err)
		return domain.HistoryRecord{}
	}

	return record
}

// Save inserts entries that are not yet in the table. Already-known
// keys are skipped up front so the insert stays small on long ledgers.
func (s *PostgresHistoryStore) Save(ctx context.Context, record domain.HistoryRecord) error {
	if s.db == nil {
		return fmt.Errorf("postgres history store has no database")
	}
	if len(record.Entries) == 0 {
		return nil
	}

	known, err := s.knownSubset(ctx, record.Entries)
	if err != nil {
		return fmt.Errorf("check known entries: %w", err)
	}

	insert := s.builder.
		Insert("published_history").
		Columns("entry", "published_at")

	pending := 0
	for _, entry := range record.Entries {
		if known[entry] {
			continue
		}
		if record.LastRun != nil {
			insert = insert.Values(entry, *record.LastRun)
		} else {
			insert = insert.Values(entry, sq.Expr("NOW()"))
		}
		pending++
	}
	if pending == 0 {
		return nil
	}

	query, args, err := insert.
		Suffix("ON CONFLICT (entry) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history entries: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) knownSubset(ctx context.Context, entries []string) (map[string]bool, error) {
	query := `SELECT entry FROM published_history WHERE entry = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.StringArray(entries))
	if err != nil {
		return nil, fmt.Errorf("query known entries: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		known[entry] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return known, nil
}

func (s *PostgresHistoryStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
