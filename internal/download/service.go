package download

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oneyoungman/bosuoyun/internal/media"
	"github.com/oneyoungman/bosuoyun/internal/model"
	"github.com/oneyoungman/bosuoyun/internal/platform"
)

const (
	// StreamURLTemplate is the CDN playlist location for a chapter recording.
	StreamURLTemplate = "https://filecdn.plaso.com/liveclass/plaso/%s/a1/a.m3u8"

	// OutputExtension is appended to sanitized chapter names.
	OutputExtension = ".mp4"

	eventBufferSize = 64
	jobIDPrefix     = "job-"
)

// StreamURL builds the CDN playlist URL for a recording location.
func StreamURL(location string) string {
	return fmt.Sprintf(StreamURLTemplate, location)
}

// NewJob builds a pending download job for one chapter of a course. The
// output lands under downloadDir in a folder named after the course.
func NewJob(courseTitle string, chapter model.Chapter, downloadDir string) *model.DownloadJob {
	return &model.DownloadJob{
		ID:          generateJobID(),
		Chapter:     chapter,
		CourseTitle: courseTitle,
		OutputPath: filepath.Join(
			downloadDir,
			platform.SafeFileName(courseTitle),
			platform.SafeFileName(chapter.Name)+OutputExtension,
		),
		Status: model.JobStatusPending,
	}
}

// Service runs one batch of download jobs. Create a new Service per batch;
// the events channel is closed when the batch ends.
type Service struct {
	fetcher     Fetcher
	history     HistoryStore
	logger      zerolog.Logger
	maxParallel int

	events  chan Event
	stopped atomic.Bool
}

// NewService creates a batch runner. maxParallel bounds concurrent downloads
// and is raised to one when smaller.
func NewService(fetcher Fetcher, history HistoryStore, maxParallel int, logger zerolog.Logger) *Service {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Service{
		fetcher:     fetcher,
		history:     history,
		logger:      logger,
		maxParallel: maxParallel,
		events:      make(chan Event, eventBufferSize),
	}
}

// Events returns the channel batch updates are delivered on. The consumer
// must drain it; the channel is closed after EventBatchFinished.
func (s *Service) Events() <-chan Event {
	return s.events
}

// Stop requests a cooperative stop. Downloads in flight are left to finish
// and report Stopping while they drain; jobs that have not started yet are
// skipped. Cancel the Run context to kill in-flight downloads as well.
func (s *Service) Stop() {
	s.stopped.Store(true)
}

// Run executes the batch and returns its summary. It blocks until every job
// reached a terminal status and closes the events channel before returning.
func (s *Service) Run(ctx context.Context, jobs []*model.DownloadJob) (model.BatchSummary, error) {
	defer close(s.events)

	if !s.fetcher.Resolved() {
		return model.BatchSummary{}, media.ErrToolNotFound
	}

	for _, job := range jobs {
		job.Status = model.JobStatusPending
		s.emit(Event{Kind: EventQueued, Job: *job})
	}

	queue := make(chan *model.DownloadJob)
	var wg sync.WaitGroup
	for i := 0; i < s.maxParallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				s.runJob(ctx, job)
			}
		}()
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)
	wg.Wait()

	summary := model.BatchSummary{Total: len(jobs)}
	for _, job := range jobs {
		switch job.Status {
		case model.JobStatusCompleted:
			summary.Succeeded++
		case model.JobStatusSkipped, model.JobStatusStopped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	s.logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("Batch finished")
	s.emit(Event{Kind: EventBatchFinished, Summary: summary})
	return summary, nil
}

// runJob drives a single job to a terminal status. Only the owning worker
// touches the job, so no locking is needed; consumers see snapshots.
func (s *Service) runJob(ctx context.Context, job *model.DownloadJob) {
	if s.stopped.Load() || ctx.Err() != nil {
		s.finishJob(job, model.JobStatusSkipped, "")
		return
	}

	job.Status = model.JobStatusStarting
	job.StartedAt = time.Now()
	s.emit(Event{Kind: EventStarted, Job: *job})

	if !job.Chapter.HasRecording() {
		s.finishJob(job, model.JobStatusError, "no video recording")
		return
	}
	location := job.Chapter.PlaybackLocation()
	if location == "" {
		s.finishJob(job, model.JobStatusError, "no playback location")
		return
	}
	if job.StreamURL == "" {
		job.StreamURL = StreamURL(location)
	}

	job.Status = model.JobStatusDownloading
	s.emit(Event{Kind: EventProgress, Job: *job})

	onProgress := func(progress float64) {
		// A stop request leaves the download running; the job reports
		// Stopping until it drains.
		stopping := s.stopped.Load() && job.Status != model.JobStatusStopping
		if stopping {
			job.Status = model.JobStatusStopping
		}

		percent := int(progress * 100)
		if percent == job.Percent && !stopping {
			return
		}
		job.Progress = progress
		job.Percent = percent
		s.emit(Event{Kind: EventProgress, Job: *job})
	}

	result, err := s.fetcher.Fetch(ctx, job.StreamURL, job.OutputPath, onProgress)
	if err != nil {
		if ctx.Err() != nil {
			s.finishJob(job, model.JobStatusStopped, err.Error())
		} else {
			s.finishJob(job, model.JobStatusError, err.Error())
		}
		return
	}

	job.SizeLabel = result.SizeLabel

	entry := model.NewHistoryEntry(job.GetDisplayTitle(), result.OutputPath, result.SizeLabel, time.Now())
	if err := s.history.Add(entry); err != nil {
		s.logger.Warn().Err(err).Str("path", result.OutputPath).Msg("Failed to record download history")
	}

	s.finishJob(job, model.JobStatusCompleted, "")
}

// finishJob moves job to a terminal status and emits the finished event.
func (s *Service) finishJob(job *model.DownloadJob, status model.JobStatus, errMsg string) {
	job.Status = status
	job.LastError = errMsg
	job.FinishedAt = time.Now()
	if status == model.JobStatusCompleted {
		job.Progress = 1.0
		job.Percent = 100
	}

	switch status {
	case model.JobStatusCompleted:
		s.logger.Info().Str("title", job.GetDisplayTitle()).Str("size", job.SizeLabel).Msg("Download completed")
	case model.JobStatusError:
		s.logger.Warn().Str("title", job.GetDisplayTitle()).Str("error", errMsg).Msg("Download failed")
	}

	s.emit(Event{Kind: EventFinished, Job: *job})
}

// emit delivers ev to the consumer. Progress updates are dropped when the
// buffer is full so a slow consumer cannot stall a download.
func (s *Service) emit(ev Event) {
	if ev.Kind == EventProgress {
		select {
		case s.events <- ev:
		default:
		}
		return
	}
	s.events <- ev
}

// generateJobID generates a unique job ID using UUID v7 for better uniqueness and time ordering
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(jobIDPrefix+"%d", time.Now().UnixNano())
	}
	return jobIDPrefix + id.String()
}
