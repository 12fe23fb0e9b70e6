package download

import (
	"context"

	"github.com/oneyoungman/bosuoyun/internal/media"
	"github.com/oneyoungman/bosuoyun/internal/model"
)

// Fetcher downloads a single stream into a local file.
type Fetcher interface {
	Resolved() bool
	Fetch(ctx context.Context, streamURL, destPath string, onProgress func(float64)) (*media.Result, error)
}

// HistoryStore records finished downloads.
type HistoryStore interface {
	Add(entry model.HistoryEntry) error
}
