// Package engine abstracts the in-process speech-to-text model API.
package engine

import (
	"context"
	"fmt"
	"time"
)

// Segment is one timed span of recognized speech.
type Segment struct {
	ID    int           `json:"id"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Result is the full structured output of a model run. The driver writes
// the plain Text next to the input file and serializes the whole struct
// into the JSON sidecar.
type Result struct {
	Text     string        `json:"text"`
	Language string        `json:"language,omitempty"`
	Segments []Segment     `json:"segments,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Model is a loaded speech model ready to transcribe files.
type Model interface {
	Transcribe(ctx context.Context, audioPath string) (Result, error)
	Close() error
}

// Loader loads a model from a ggml weights file.
type Loader interface {
	Load(ctx context.Context, modelPath string) (Model, error)
}

// RuntimeError marks recoverable engine failures: the batch records the
// file as failed and moves on instead of aborting the run.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func runtimeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RuntimeError{Op: op, Err: err}
}
