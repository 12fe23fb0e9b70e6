package model

import (
	"fmt"
	"strings"
	"time"
)

// DownloadJob represents a single chapter download within a batch.
type DownloadJob struct {
	ID          string
	Chapter     Chapter
	CourseTitle string
	StreamURL   string  // resolved m3u8 URL, empty until the job starts
	OutputPath  string  // destination mp4 path
	Status      JobStatus
	Progress    float64 // 0.0 to 1.0
	Percent     int     // 0 to 100
	SizeLabel   string  // human readable output size (e.g., "12.3MB")
	LastError   string  // last error message if any
	StartedAt   time.Time
	FinishedAt  time.Time
}

// GetDisplayTitle returns chapter name or output filename in order of preference
func (dj *DownloadJob) GetDisplayTitle() string {
	if dj.Chapter.Name != "" {
		return dj.Chapter.Name
	}

	if dj.OutputPath != "" {
		// Extract just the filename without path (support both / and \ separators)
		parts := strings.FieldsFunc(dj.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return dj.ID
}

// BatchSummary is the final tally of a batch run.
type BatchSummary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Total     int
}

// String returns the summary in a single printable line.
func (bs BatchSummary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d skipped (%d total)",
		bs.Succeeded, bs.Failed, bs.Skipped, bs.Total)
}
