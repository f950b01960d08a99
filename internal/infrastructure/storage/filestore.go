package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"BeautyBot/internal/domain"
	"BeautyBot/internal/ports"
)

// FileHistoryStore persists the published-key ledger as a JSON file:
// {"entries": [...], "last_run": "<RFC 3339>"|null}.
type FileHistoryStore struct {
	path   string
	logger *slog.Logger
}

var _ ports.HistoryStore = (*FileHistoryStore)(nil)

// NewFileHistoryStore wires the state file path.
func NewFileHistoryStore(path string, logger *slog.Logger) *FileHistoryStore {
	return &FileHistoryStore{path: path, logger: logger}
}

type historyFile struct {
	Entries []string   `json:"entries"`
	LastRun *time.Time `json:"last_run"`
}

// Load reads persisted history. Missing or corrupt state is never an
// error for the caller: a fresh default record is returned and the
// condition is logged, which lets the pipeline recover by rebuilding
// history over subsequent runs.
func (s *FileHistoryStore) Load(_ context.Context) domain.HistoryRecord {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.HistoryRecord{}
	}
	if err != nil {
		s.warn("cannot read history, starting fresh", "path", s.path, "error", err)
		return domain.HistoryRecord{}
	}

	var file historyFile
	if err := json.Unmarshal(raw, &file); err != nil {
		s.warn("history file is corrupt, starting fresh", "path", s.path, "error", err)
		return domain.HistoryRecord{}
	}

	return domain.HistoryRecord{Entries: file.Entries, LastRun: file.LastRun}
}

// Save overwrites persisted history via a temp file and rename, so a
// crash mid-write leaves either the old or the new content.
func (s *FileHistoryStore) Save(_ context.Context, record domain.HistoryRecord) error {
	raw, err := json.MarshalIndent(historyFile{
		Entries: record.Entries,
		LastRun: record.LastRun,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	return writeFileAtomic(s.path, raw)
}

func (s *FileHistoryStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func writeFileAtomic(path string, raw []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
