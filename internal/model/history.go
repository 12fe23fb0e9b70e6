package model

import "time"

// HistoryTimeFormat is the timestamp layout stored in history entries.
const HistoryTimeFormat = "2006-01-02 15:04"

// HistoryEntry is one completed download in the history ledger. Entries are
// immutable once written.
type HistoryEntry struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Date  string `json:"date"`
	Size  string `json:"size"`
}

// NewHistoryEntry builds a ledger entry for a finished download.
func NewHistoryEntry(title, path, size string, at time.Time) HistoryEntry {
	return HistoryEntry{
		Title: title,
		Path:  path,
		Date:  at.Format(HistoryTimeFormat),
		Size:  size,
	}
}
