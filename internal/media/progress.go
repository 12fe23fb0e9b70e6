package media

import (
	"bytes"
	"regexp"
	"strconv"
)

var (
	// ffmpeg prints the stream duration once in its header and then
	// rewrites a status line carrying the current position.
	durationPattern = regexp.MustCompile(`Duration: (\d+):(\d+):(\d+)`)
	timePattern     = regexp.MustCompile(`time=\s*(\d+):(\d+):(\d+)`)
)

// progressParser extracts completion from ffmpeg console output. It needs to
// see the Duration header line before position lines yield progress.
type progressParser struct {
	totalSeconds float64
}

// Feed consumes one output line. It returns progress in [0, 1] and true when
// the line advanced the known position, false for lines without timing info.
func (p *progressParser) Feed(line string) (float64, bool) {
	if match := durationPattern.FindStringSubmatch(line); match != nil {
		p.totalSeconds = clockToSeconds(match)
		return 0, false
	}

	match := timePattern.FindStringSubmatch(line)
	if match == nil || p.totalSeconds <= 0 {
		return 0, false
	}

	progress := clockToSeconds(match) / p.totalSeconds
	if progress > 1.0 {
		progress = 1.0
	}
	return progress, true
}

// clockToSeconds converts the three HH, MM, SS submatches of a clock pattern.
func clockToSeconds(match []string) float64 {
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	return float64(hours*3600 + minutes*60 + seconds)
}

// scanLines is a bufio.SplitFunc that treats a bare carriage return as a line
// ending, since ffmpeg rewrites its status line with CR instead of LF.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' {
			if advance == len(data) && !atEOF {
				// The CR may be half of a CRLF pair; wait for more data.
				return 0, nil, nil
			}
			if advance < len(data) && data[advance] == '\n' {
				advance++
			}
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
