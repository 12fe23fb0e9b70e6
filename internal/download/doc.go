package download

// Package download runs batches of chapter downloads. It fans jobs out to a
// bounded set of workers, streams lifecycle and progress events to the
// consumer over a channel, and records finished downloads in the history
// ledger.
