package download

import "github.com/oneyoungman/bosuoyun/internal/model"

// EventKind identifies what an Event reports.
type EventKind string

const (
	// EventQueued is emitted once per job before the batch starts.
	EventQueued EventKind = "queued"

	// EventStarted is emitted when a worker picks a job up.
	EventStarted EventKind = "started"

	// EventProgress carries a completion update for a running job.
	EventProgress EventKind = "progress"

	// EventFinished is emitted when a job reaches a terminal status.
	EventFinished EventKind = "finished"

	// EventBatchFinished is the last event of a batch and carries the summary.
	EventBatchFinished EventKind = "batch_finished"
)

// Event is one update emitted by a running batch. Job is a snapshot taken at
// emit time and safe to keep. Summary is populated on EventBatchFinished only.
type Event struct {
	Kind    EventKind
	Job     model.DownloadJob
	Summary model.BatchSummary
}
