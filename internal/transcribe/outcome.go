// Package transcribe turns discovered media files into transcript files
// sitting next to their source.
package transcribe

import "time"

const (
	outputSuffix  = ".transcribed.txt"
	sidecarSuffix = ".json"
)

// OutputPath derives the transcript path from the input path. It is a pure
// function of the input; there is no collision handling or versioning.
func OutputPath(file string) string {
	return file + outputSuffix
}

// SidecarPath is where the native engine stores the structured result.
func SidecarPath(file string) string {
	return OutputPath(file) + sidecarSuffix
}

type Status int

const (
	StatusTranscribed Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusTranscribed:
		return "transcribed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged per-file result. Output is only meaningful for
// StatusTranscribed and StatusSkipped; Err is only set for StatusFailed.
type Outcome struct {
	Input   string
	Output  string
	Status  Status
	Elapsed time.Duration
	Err     error
}
