package media

// Package media drives ffmpeg to pull HLS recordings down into local MP4
// files, reporting progress parsed from the tool's console output.
