package media

import (
	"bufio"
	"strings"
	"testing"
)

func TestProgressParser_Feed(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected []float64
	}{
		{
			name: "Position lines after duration header",
			lines: []string{
				"  Duration: 00:10:00.04, start: 0.000000, bitrate: 1404 kb/s",
				"frame=  100 fps= 25 time=00:05:00.00 bitrate=1404.0kbits/s",
				"frame=  200 fps= 25 time=00:10:00.00 bitrate=1404.0kbits/s",
			},
			expected: []float64{0.5, 1.0},
		},
		{
			name: "Position with space after time=",
			lines: []string{
				"  Duration: 01:00:00.00, start: 0.000000",
				"frame= 1 time= 00:30:00.00 bitrate=900kbits/s",
			},
			expected: []float64{0.5},
		},
		{
			name: "Position before duration yields nothing",
			lines: []string{
				"frame= 1 time=00:05:00.00",
				"  Duration: 00:10:00.00",
			},
			expected: nil,
		},
		{
			name: "Overshoot clamps to one",
			lines: []string{
				"  Duration: 00:10:00.00",
				"frame= 1 time=00:12:00.00",
			},
			expected: []float64{1.0},
		},
		{
			name: "Unrelated lines yield nothing",
			lines: []string{
				"Input #0, hls, from 'https://example.com/a.m3u8':",
				"Stream mapping:",
				"Press [q] to stop, [?] for help",
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parser progressParser
			var got []float64
			for _, line := range tt.lines {
				if progress, ok := parser.Feed(line); ok {
					got = append(got, progress)
				}
			}

			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d progress values, got %d (%v)", len(tt.expected), len(got), got)
			}
			for i, want := range tt.expected {
				if got[i] != want {
					t.Errorf("Expected progress[%d] = %v, got %v", i, want, got[i])
				}
			}
		})
	}
}

func TestScanLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "LF lines",
			input:    "first\nsecond\nthird",
			expected: []string{"first", "second", "third"},
		},
		{
			name:     "CR rewritten status line",
			input:    "time=00:01:00\rtime=00:02:00\rtime=00:03:00\n",
			expected: []string{"time=00:01:00", "time=00:02:00", "time=00:03:00"},
		},
		{
			name:     "CRLF pairs produce no empty lines",
			input:    "first\r\nsecond\r\n",
			expected: []string{"first", "second"},
		},
		{
			name:     "Mixed endings",
			input:    "header\nstatus\rstatus2\r\ntail",
			expected: []string{"header", "status", "status2", "tail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(scanLines)

			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				t.Fatalf("Expected no scan error, got: %v", err)
			}

			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d lines, got %d (%q)", len(tt.expected), len(got), got)
			}
			for i, want := range tt.expected {
				if got[i] != want {
					t.Errorf("Expected line[%d] = %q, got %q", i, want, got[i])
				}
			}
		})
	}
}
