package domain

import "time"

// HistoryRecord is the durable ledger of published dedup keys.
// Entries are append-only during a run; persistence happens as a
// separate explicit step after successful delivery.
type HistoryRecord struct {
	Entries []string
	LastRun *time.Time
}

// Contains reports whether the normalized key was already published.
func (h HistoryRecord) Contains(key string) bool {
	key = Normalize(key)
	for _, entry := range h.Entries {
		if Normalize(entry) == key {
			return true
		}
	}
	return false
}

// Append records a key, normalized, without persisting.
func (h *HistoryRecord) Append(key string) {
	h.Entries = append(h.Entries, Normalize(key))
}
