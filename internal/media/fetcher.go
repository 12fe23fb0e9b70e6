package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/oneyoungman/bosuoyun/internal/platform"
)

// FFmpeg constants
const (
	FFmpegCommand = "ffmpeg"

	// Bitstream filter that fixes AAC audio when copying out of TS segments
	AACFilter = "aac_adtstoasc"

	// DefaultFetchTimeout bounds a single recording download.
	DefaultFetchTimeout = 2 * time.Hour

	versionProbeTimeout = 5 * time.Second
)

// ErrToolNotFound is returned when no usable ffmpeg binary could be located.
var ErrToolNotFound = errors.New("ffmpeg not found")

// windowsFFmpegPaths are install locations checked before PATH on Windows.
var windowsFFmpegPaths = []string{
	`D:\project_software\ffmpeg-8.0.1-essentials_build\bin\ffmpeg.exe`,
	`D:\ffmpeg\bin\ffmpeg.exe`,
	`C:\ffmpeg\bin\ffmpeg.exe`,
}

// ResolveFFmpeg locates an ffmpeg binary. The configured path wins when it
// exists, then well-known install locations, then PATH. Empty means not found.
func ResolveFFmpeg(configuredPath string) string {
	if configuredPath != "" {
		if _, err := os.Stat(configuredPath); err == nil {
			return configuredPath
		}
	}

	for _, candidate := range wellKnownPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if path, err := exec.LookPath(FFmpegCommand); err == nil {
		return path
	}
	return ""
}

// wellKnownPaths returns install locations probed for the current OS.
func wellKnownPaths() []string {
	switch runtime.GOOS {
	case platform.OSWindows:
		return windowsFFmpegPaths
	case platform.OSDarwin:
		return []string{"/usr/local/bin/ffmpeg", "/opt/homebrew/bin/ffmpeg"}
	case platform.OSLinux:
		return []string{"/usr/bin/ffmpeg", "/usr/local/bin/ffmpeg"}
	default:
		return nil
	}
}

// Result describes a finished download.
type Result struct {
	OutputPath string
	SizeLabel  string
}

// Fetcher downloads HLS streams with ffmpeg.
type Fetcher struct {
	ffmpegPath   string
	fetchTimeout time.Duration
	logger       zerolog.Logger
}

// FetcherOption customizes a Fetcher built by NewFetcher.
type FetcherOption func(*Fetcher)

// WithFetchTimeout overrides the per-download time limit.
func WithFetchTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.fetchTimeout = timeout
	}
}

// NewFetcher resolves ffmpeg once and returns a fetcher bound to it. A
// fetcher with no resolved binary is still usable for Resolved checks.
func NewFetcher(configuredPath string, logger zerolog.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		ffmpegPath:   ResolveFFmpeg(configuredPath),
		fetchTimeout: DefaultFetchTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolved reports whether an ffmpeg binary was located.
func (f *Fetcher) Resolved() bool {
	return f.ffmpegPath != ""
}

// Path returns the resolved ffmpeg binary path, empty when not found.
func (f *Fetcher) Path() string {
	return f.ffmpegPath
}

// BuildFFmpegArgs builds the ffmpeg command arguments for a stream download.
func BuildFFmpegArgs(streamURL, destPath string) []string {
	return []string{
		"-i", streamURL, // HLS playlist input
		"-c", "copy", // Remux without re-encoding
		"-bsf:a", AACFilter, // Fix AAC packaging for MP4
		"-y",     // Overwrite output file
		destPath, // Output file
	}
}

// Fetch downloads streamURL into destPath, creating the parent directory as
// needed. onProgress, when non-nil, receives completion values in [0, 1]
// parsed from ffmpeg output. The download is killed when ctx is cancelled or
// the fetch timeout elapses, and a partial output file is removed on any
// failure.
func (f *Fetcher) Fetch(ctx context.Context, streamURL, destPath string, onProgress func(float64)) (*Result, error) {
	if !f.Resolved() {
		return nil, ErrToolNotFound
	}

	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(destPath)); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffmpegPath, BuildFFmpegArgs(streamURL, destPath)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	// ffmpeg writes its status to stderr; merge the streams so one reader
	// sees everything.
	cmd.Stderr = cmd.Stdout

	f.logger.Debug().Str("url", streamURL).Str("dest", destPath).Msg("Starting ffmpeg")

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	// Drain the pipe to EOF before Wait closes it.
	f.monitorProgress(stdout, onProgress)

	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		os.Remove(destPath)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ffmpeg timed out after %s: %w", f.fetchTimeout, ctx.Err())
		}
		return nil, ctx.Err()
	}
	if waitErr != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("ffmpeg failed: %w", waitErr)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg exited cleanly but output is missing: %w", err)
	}

	result := &Result{
		OutputPath: destPath,
		SizeLabel:  fmt.Sprintf("%.1fMB", float64(info.Size())/1024.0/1024.0),
	}
	f.logger.Debug().Str("dest", destPath).Str("size", result.SizeLabel).Msg("Download finished")
	return result, nil
}

// monitorProgress reads merged ffmpeg output until EOF, feeding parsed
// completion values to onProgress.
func (f *Fetcher) monitorProgress(out io.Reader, onProgress func(float64)) {
	scanner := bufio.NewScanner(out)
	scanner.Split(scanLines)

	var parser progressParser
	for scanner.Scan() {
		progress, ok := parser.Feed(scanner.Text())
		if ok && onProgress != nil {
			onProgress(progress)
		}
	}
}

// Version returns the first line of ffmpeg -version output.
func (f *Fetcher) Version(ctx context.Context) (string, error) {
	if !f.Resolved() {
		return "", ErrToolNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, f.ffmpegPath, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to run ffmpeg -version: %w", err)
	}

	line := string(output)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line), nil
}
