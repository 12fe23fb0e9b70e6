package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/oneyoungman/bosuoyun/internal/download"
	"github.com/oneyoungman/bosuoyun/internal/media"
	"github.com/oneyoungman/bosuoyun/internal/model"
	"github.com/oneyoungman/bosuoyun/internal/plaso"
	"github.com/oneyoungman/bosuoyun/internal/platform"
	"github.com/oneyoungman/bosuoyun/internal/store"
	"github.com/oneyoungman/bosuoyun/internal/tui"
)

var (
	downloadChapters string
	downloadAll      bool
	downloadOut      string
	downloadPlain    bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <course>",
	Short: "Download chapter recordings of a course",
	Long: `Download chapter recordings of a course as MP4 files.

The course is referenced by its position in the "courses" listing or by part
of its title. Select chapters with --chapters (positions from the "chapters"
listing, ranges allowed) or take everything with --all.`,
	Example: `  bosuoyun download 2 --all
  bosuoyun download 高等数学 --chapters 1,3-5`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVar(&downloadChapters, "chapters", "", `chapters to download, e.g. "1,3-5"`)
	downloadCmd.Flags().BoolVar(&downloadAll, "all", false, "download every chapter")
	downloadCmd.Flags().StringVar(&downloadOut, "out", "", "output directory (default: the configured download path)")
	downloadCmd.Flags().BoolVar(&downloadPlain, "plain", false, "print one line per event instead of the interactive view")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	if downloadChapters == "" && !downloadAll {
		return errors.New(`nothing selected: pass --chapters "1,3-5" or --all`)
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	client := plaso.NewClient(session.AccessToken, appLogger)
	courses, err := client.ListCourses(cmd.Context())
	if err != nil {
		return withLoginHint(err)
	}
	course, err := resolveCourse(courses, args[0])
	if err != nil {
		return err
	}

	chapters, err := client.ListChapters(cmd.Context(), course.OriginID, course.XFile.DirID)
	if err != nil {
		if errors.Is(err, plaso.ErrNoChapterDir) {
			return fmt.Errorf("%s has no recording directory", course.Title)
		}
		return withLoginHint(err)
	}
	if len(chapters) == 0 {
		return fmt.Errorf("%s has no chapters", course.Title)
	}

	selected := chapters
	if !downloadAll {
		numbers, err := parseSelection(downloadChapters, len(chapters))
		if err != nil {
			return err
		}
		selected = make([]model.Chapter, 0, len(numbers))
		for _, n := range numbers {
			selected = append(selected, chapters[n-1])
		}
	}

	outDir := downloadOut
	if outDir == "" {
		outDir = settings.GetDownloadPath()
	}

	fetcher := media.NewFetcher(settings.GetFFmpegPath(), appLogger)
	if !fetcher.Resolved() {
		return fmt.Errorf("ffmpeg not found: install it or point %q at it",
			appName+" settings set ffmpeg_path <path>")
	}

	history, err := store.NewHistoryStore(configDir)
	if err != nil {
		return err
	}

	jobs := make([]*model.DownloadJob, 0, len(selected))
	for _, chapter := range selected {
		jobs = append(jobs, download.NewJob(course.Title, chapter, outDir))
	}

	if free, err := platform.DiskFreeBytes(outDir); err == nil {
		appLogger.Info().
			Str("dir", outDir).
			Str("free", fmt.Sprintf("%.1fGB", float64(free)/1024/1024/1024)).
			Int("chapters", len(jobs)).
			Msg("Starting batch")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	service := download.NewService(fetcher, history, settings.GetMaxConcurrent(), appLogger)

	type runResult struct {
		summary model.BatchSummary
		err     error
	}
	resultCh := make(chan runResult, 1)
	go func() {
		summary, err := service.Run(ctx, jobs)
		resultCh <- runResult{summary: summary, err: err}
	}()

	if downloadPlain || !term.IsTerminal(os.Stdout.Fd()) {
		printEvents(cmd, service.Events())
	} else {
		viewErr := tui.Run(service.Events(), service.Stop, settings.GetTheme())
		// The view is gone either way; kill whatever is still running and
		// drain the stream so the batch can finish.
		cancel()
		for range service.Events() {
		}
		if viewErr != nil {
			appLogger.Warn().Err(viewErr).Msg("Download view failed")
		}
	}

	result := <-resultCh
	if result.err != nil {
		return result.err
	}

	cmd.Printf("%s\n", result.summary.String())
	cmd.Printf("saved under %s\n", filepath.Join(outDir, platform.SafeFileName(course.Title)))
	return nil
}

// printEvents writes one line per lifecycle event, for pipes and --plain.
func printEvents(cmd *cobra.Command, events <-chan download.Event) {
	for ev := range events {
		switch ev.Kind {
		case download.EventStarted:
			cmd.Printf("downloading %s\n", ev.Job.GetDisplayTitle())
		case download.EventFinished:
			switch ev.Job.Status {
			case model.JobStatusCompleted:
				cmd.Printf("  done %s (%s)\n", ev.Job.GetDisplayTitle(), ev.Job.SizeLabel)
			case model.JobStatusError:
				cmd.Printf("  failed %s: %s\n", ev.Job.GetDisplayTitle(), ev.Job.LastError)
			case model.JobStatusStopped:
				cmd.Printf("  stopped %s\n", ev.Job.GetDisplayTitle())
			case model.JobStatusSkipped:
				cmd.Printf("  skipped %s\n", ev.Job.GetDisplayTitle())
			}
		}
	}
}
