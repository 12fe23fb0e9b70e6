package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/oneyoungman/bosuoyun/internal/media"
	"github.com/oneyoungman/bosuoyun/internal/model"
	"github.com/oneyoungman/bosuoyun/internal/store"
)

// fakeFetcher satisfies Fetcher without touching ffmpeg.
type fakeFetcher struct {
	mu        sync.Mutex
	resolved  bool
	calls     []string
	active    int
	maxActive int
	delay     time.Duration
	failures  map[string]error
	progress  []float64
	onFetch   func(streamURL string)
}

func (f *fakeFetcher) Resolved() bool {
	return f.resolved
}

func (f *fakeFetcher) Fetch(ctx context.Context, streamURL, destPath string, onProgress func(float64)) (*media.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, streamURL)
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(streamURL)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	for _, p := range f.progress {
		if onProgress != nil {
			onProgress(p)
		}
	}

	f.mu.Lock()
	f.active--
	err := f.failures[streamURL]
	f.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &media.Result{OutputPath: destPath, SizeLabel: "12.3MB"}, nil
}

// fakeHistory satisfies HistoryStore in memory.
type fakeHistory struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
	err     error
}

func (h *fakeHistory) Add(entry model.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, entry)
	return nil
}

func chapterWithRecording(id, name, location string) model.Chapter {
	return model.Chapter{
		ID:          id,
		Name:        name,
		RecordFiles: []model.RecordFile{{Location: location}},
	}
}

// drainEvents collects every event of a batch in the background.
func drainEvents(s *Service) (*[]Event, chan struct{}) {
	events := &[]Event{}
	done := make(chan struct{})
	go func() {
		for ev := range s.Events() {
			*events = append(*events, ev)
		}
		close(done)
	}()
	return events, done
}

func countKind(events []Event, kind EventKind) int {
	count := 0
	for _, ev := range events {
		if ev.Kind == kind {
			count++
		}
	}
	return count
}

func TestStreamURL(t *testing.T) {
	url := StreamURL("rec/abc123")
	expected := "https://filecdn.plaso.com/liveclass/plaso/rec/abc123/a1/a.m3u8"
	if url != expected {
		t.Errorf("Expected %s, got %s", expected, url)
	}
}

func TestNewJob(t *testing.T) {
	chapter := chapterWithRecording("ch-1", "第1讲: 入门/基础", "loc-1")

	job := NewJob("高等数学<2024>", chapter, "/tmp/downloads")

	if job.Status != model.JobStatusPending {
		t.Errorf("Expected status %s, got %s", model.JobStatusPending, job.Status)
	}
	if !strings.HasPrefix(job.ID, jobIDPrefix) {
		t.Errorf("Expected ID with prefix %s, got %s", jobIDPrefix, job.ID)
	}

	expected := filepath.Join("/tmp/downloads", "高等数学2024", "第1讲 入门基础.mp4")
	if job.OutputPath != expected {
		t.Errorf("Expected output path %s, got %s", expected, job.OutputPath)
	}
}

func TestService_Run_Succeeds(t *testing.T) {
	fetcher := &fakeFetcher{resolved: true}
	history := &fakeHistory{}
	service := NewService(fetcher, history, 1, zerolog.Nop())

	jobs := []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "first", "loc-1"), t.TempDir()),
		NewJob("课程", chapterWithRecording("ch-2", "second", "loc-2"), t.TempDir()),
	}

	events, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 0 || summary.Skipped != 0 || summary.Total != 2 {
		t.Errorf("Expected summary 2/0/0 of 2, got %+v", summary)
	}

	if len(fetcher.calls) != 2 {
		t.Fatalf("Expected 2 fetch calls, got %d", len(fetcher.calls))
	}
	if fetcher.calls[0] != StreamURL("loc-1") {
		t.Errorf("Expected first call %s, got %s", StreamURL("loc-1"), fetcher.calls[0])
	}

	if len(history.entries) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(history.entries))
	}

	if got := countKind(*events, EventQueued); got != 2 {
		t.Errorf("Expected 2 queued events, got %d", got)
	}
	if got := countKind(*events, EventStarted); got != 2 {
		t.Errorf("Expected 2 started events, got %d", got)
	}
	if got := countKind(*events, EventFinished); got != 2 {
		t.Errorf("Expected 2 finished events, got %d", got)
	}
	if got := countKind(*events, EventBatchFinished); got != 1 {
		t.Errorf("Expected 1 batch finished event, got %d", got)
	}

	last := (*events)[len(*events)-1]
	if last.Kind != EventBatchFinished {
		t.Errorf("Expected final event %s, got %s", EventBatchFinished, last.Kind)
	}
	if last.Summary.Succeeded != 2 {
		t.Errorf("Expected summary event with 2 succeeded, got %d", last.Summary.Succeeded)
	}
}

func TestService_Run_FailsChaptersWithoutPlayback(t *testing.T) {
	fetcher := &fakeFetcher{resolved: true}
	history := &fakeHistory{}
	service := NewService(fetcher, history, 1, zerolog.Nop())

	noRecording := model.Chapter{ID: "ch-1", Name: "no recording"}
	noLocation := model.Chapter{ID: "ch-2", Name: "no location", RecordFiles: []model.RecordFile{{}}}

	jobs := []*model.DownloadJob{
		NewJob("课程", noRecording, t.TempDir()),
		NewJob("课程", noLocation, t.TempDir()),
	}

	events, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Failed != 2 || summary.Succeeded != 0 {
		t.Errorf("Expected 2 failed, got %+v", summary)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetch calls, got %d", len(fetcher.calls))
	}
	if len(history.entries) != 0 {
		t.Errorf("Expected no history entries, got %d", len(history.entries))
	}

	var reasons []string
	for _, ev := range *events {
		if ev.Kind == EventFinished {
			reasons = append(reasons, ev.Job.LastError)
		}
	}
	if len(reasons) != 2 {
		t.Fatalf("Expected 2 finished events, got %d", len(reasons))
	}
	if reasons[0] != "no video recording" {
		t.Errorf("Expected 'no video recording', got %q", reasons[0])
	}
	if reasons[1] != "no playback location" {
		t.Errorf("Expected 'no playback location', got %q", reasons[1])
	}
}

func TestService_Run_MixedBatch(t *testing.T) {
	fetcher := &fakeFetcher{resolved: true}
	history := &fakeHistory{}
	service := NewService(fetcher, history, 1, zerolog.Nop())

	jobs := []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "Ch1", "L1"), t.TempDir()),
		NewJob("课程", model.Chapter{ID: "ch-2", Name: "Ch2"}, t.TempDir()),
	}

	_, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 || summary.Total != 2 {
		t.Errorf("Expected 1 succeeded and 1 failed of 2, got %+v", summary)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("Expected 1 fetch call, got %d", len(fetcher.calls))
	}
	if len(history.entries) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history.entries))
	}
	if history.entries[0].Title != "Ch1" {
		t.Errorf("Expected history entry titled Ch1, got %q", history.entries[0].Title)
	}
}

func TestService_Run_ToolMissing(t *testing.T) {
	fetcher := &fakeFetcher{resolved: false}
	service := NewService(fetcher, &fakeHistory{}, 1, zerolog.Nop())

	_, done := drainEvents(service)
	_, err := service.Run(context.Background(), []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "first", "loc-1"), t.TempDir()),
	})
	<-done

	if !errors.Is(err, media.ErrToolNotFound) {
		t.Errorf("Expected ErrToolNotFound, got %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetch calls, got %d", len(fetcher.calls))
	}
}

func TestService_Run_BoundedParallelism(t *testing.T) {
	fetcher := &fakeFetcher{resolved: true, delay: 20 * time.Millisecond}
	service := NewService(fetcher, &fakeHistory{}, 2, zerolog.Nop())

	var jobs []*model.DownloadJob
	for i := 0; i < 6; i++ {
		chapter := chapterWithRecording("ch", "chapter", "loc-"+string(rune('a'+i)))
		jobs = append(jobs, NewJob("课程", chapter, t.TempDir()))
	}

	_, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Succeeded != 6 {
		t.Errorf("Expected 6 succeeded, got %+v", summary)
	}
	if fetcher.maxActive > 2 {
		t.Errorf("Expected at most 2 concurrent fetches, got %d", fetcher.maxActive)
	}
}

func TestService_Run_ParallelHistoryAppends(t *testing.T) {
	history, err := store.NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryStore: %v", err)
	}

	fetcher := &fakeFetcher{resolved: true, delay: time.Millisecond}
	service := NewService(fetcher, history, 8, zerolog.Nop())

	outDir := t.TempDir()
	var jobs []*model.DownloadJob
	for i := 0; i < 40; i++ {
		chapter := chapterWithRecording(fmt.Sprintf("ch-%02d", i), fmt.Sprintf("chapter %02d", i), fmt.Sprintf("loc-%02d", i))
		jobs = append(jobs, NewJob("课程", chapter, outDir))
	}

	_, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Succeeded != len(jobs) {
		t.Fatalf("Expected %d succeeded, got %+v", len(jobs), summary)
	}

	entries, err := history.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != len(jobs) {
		t.Errorf("Expected %d ledger entries after %d successes, got %d", len(jobs), summary.Succeeded, len(entries))
	}
}

func TestService_Stop_SkipsRemaining(t *testing.T) {
	fetcher := &fakeFetcher{resolved: true}
	service := NewService(fetcher, &fakeHistory{}, 1, zerolog.Nop())
	fetcher.onFetch = func(string) {
		service.Stop()
	}

	jobs := []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "first", "loc-1"), t.TempDir()),
		NewJob("课程", chapterWithRecording("ch-2", "second", "loc-2"), t.TempDir()),
		NewJob("课程", chapterWithRecording("ch-3", "third", "loc-3"), t.TempDir()),
	}

	_, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Succeeded != 1 || summary.Skipped != 2 || summary.Failed != 0 {
		t.Errorf("Expected 1 succeeded and 2 skipped, got %+v", summary)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("Expected 1 fetch call, got %d", len(fetcher.calls))
	}

	if jobs[1].Status != model.JobStatusSkipped {
		t.Errorf("Expected second job %s, got %s", model.JobStatusSkipped, jobs[1].Status)
	}
}

func TestService_Stop_MarksInFlightStopping(t *testing.T) {
	fetcher := &fakeFetcher{resolved: true, progress: []float64{0.3, 0.6}}
	service := NewService(fetcher, &fakeHistory{}, 1, zerolog.Nop())
	fetcher.onFetch = func(string) {
		service.Stop()
	}

	jobs := []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "first", "loc-1"), t.TempDir()),
	}

	events, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("Expected the in-flight download to finish, got %+v", summary)
	}
	if jobs[0].Status != model.JobStatusCompleted {
		t.Errorf("Expected final status %s, got %s", model.JobStatusCompleted, jobs[0].Status)
	}

	sawStopping := false
	for _, ev := range *events {
		if ev.Kind == EventProgress && ev.Job.Status == model.JobStatusStopping {
			sawStopping = true
		}
	}
	if !sawStopping {
		t.Error("Expected a progress event with stopping status")
	}
}

func TestService_Run_CancelKillsInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &fakeFetcher{resolved: true}
	service := NewService(fetcher, &fakeHistory{}, 1, zerolog.Nop())
	fetcher.onFetch = func(string) {
		cancel()
	}

	jobs := []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "first", "loc-1"), t.TempDir()),
		NewJob("课程", chapterWithRecording("ch-2", "second", "loc-2"), t.TempDir()),
	}

	_, done := drainEvents(service)
	summary, err := service.Run(ctx, jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Skipped != 2 || summary.Succeeded != 0 {
		t.Errorf("Expected both jobs stopped or skipped, got %+v", summary)
	}
	if jobs[0].Status != model.JobStatusStopped {
		t.Errorf("Expected first job %s, got %s", model.JobStatusStopped, jobs[0].Status)
	}
	if jobs[1].Status != model.JobStatusSkipped {
		t.Errorf("Expected second job %s, got %s", model.JobStatusSkipped, jobs[1].Status)
	}
}

func TestService_Run_RecordsFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		resolved: true,
		failures: map[string]error{StreamURL("loc-2"): errors.New("connection reset")},
	}
	history := &fakeHistory{}
	service := NewService(fetcher, history, 1, zerolog.Nop())

	jobs := []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "first", "loc-1"), t.TempDir()),
		NewJob("课程", chapterWithRecording("ch-2", "second", "loc-2"), t.TempDir()),
	}

	events, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("Expected 1 succeeded and 1 failed, got %+v", summary)
	}
	if len(history.entries) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(history.entries))
	}

	var lastError string
	found := false
	for _, ev := range *events {
		if ev.Kind == EventFinished && ev.Job.Status == model.JobStatusError {
			lastError = ev.Job.LastError
			found = true
		}
	}
	if !found {
		t.Fatal("Expected a finished event with error status")
	}
	if lastError != "connection reset" {
		t.Errorf("Expected error 'connection reset', got %q", lastError)
	}
}

func TestService_Run_EmitsProgress(t *testing.T) {
	fetcher := &fakeFetcher{resolved: true, progress: []float64{0.25, 0.5, 1.0}}
	service := NewService(fetcher, &fakeHistory{}, 1, zerolog.Nop())

	jobs := []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "first", "loc-1"), t.TempDir()),
	}

	events, done := drainEvents(service)
	if _, err := service.Run(context.Background(), jobs); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	<-done

	var percents []int
	for _, ev := range *events {
		if ev.Kind == EventProgress && ev.Job.Percent > 0 {
			percents = append(percents, ev.Job.Percent)
		}
	}
	if len(percents) == 0 {
		t.Fatal("Expected progress events, got none")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("Expected non-decreasing percents, got %v", percents)
		}
	}
}

func TestService_Run_HistoryFailureDoesNotFailJob(t *testing.T) {
	fetcher := &fakeFetcher{resolved: true}
	history := &fakeHistory{err: errors.New("disk full")}
	service := NewService(fetcher, history, 1, zerolog.Nop())

	jobs := []*model.DownloadJob{
		NewJob("课程", chapterWithRecording("ch-1", "first", "loc-1"), t.TempDir()),
	}

	_, done := drainEvents(service)
	summary, err := service.Run(context.Background(), jobs)
	<-done

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("Expected 1 succeeded despite history failure, got %+v", summary)
	}
}
