package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oneyoungman/bosuoyun/internal/model"
)

// HistoryFileName is the on-disk name of the history ledger.
const HistoryFileName = "history.json"

// MaxHistoryEntries caps the ledger size; the oldest entries fall off.
const MaxHistoryEntries = 100

// HistoryStore keeps the append-only ledger of completed downloads,
// newest first.
type HistoryStore interface {
	Add(entry model.HistoryEntry) error
	List() ([]model.HistoryEntry, error)
}

// diskHistoryStore is the concrete HistoryStore writing into the config
// directory.
type diskHistoryStore struct {
	mu   sync.Mutex // serializes the read-modify-write in Add
	path string     // full path to history.json
}

// NewHistoryStore returns a HistoryStore backed by dir/history.json, creating
// dir if needed.
func NewHistoryStore(dir string) (HistoryStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	return &diskHistoryStore{path: filepath.Join(dir, HistoryFileName)}, nil
}

// Add prepends entry to the ledger, truncates to MaxHistoryEntries, and
// writes the result atomically. Add is safe for concurrent use.
func (d *diskHistoryStore) Add(entry model.HistoryEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.List()
	if err != nil {
		return err
	}

	entries = append([]model.HistoryEntry{entry}, entries...)
	if len(entries) > MaxHistoryEntries {
		entries = entries[:MaxHistoryEntries]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	if err := writeFileAtomic(d.path, data); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// List returns all ledger entries, newest first. A missing or unreadable
// ledger yields an empty list rather than an error.
func (d *diskHistoryStore) List() ([]model.HistoryEntry, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.HistoryEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var entries []model.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A mangled ledger is not worth failing a download over.
		return []model.HistoryEntry{}, nil
	}
	return entries, nil
}
