package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fmueller/scribedir/internal/engine"
)

// Request describes one transcription. Model carries the model name for
// the cli strategy and the resolved ggml file path for the native one.
type Request struct {
	File     string
	Model    string
	Language string
	Force    bool
	Strategy Strategy
}

// Driver applies the skip/force policy and dispatches to one strategy.
// Files are processed one at a time; the driver keeps no state between
// calls.
type Driver struct {
	Runner Runner
	Loader engine.Loader
	Logger *zap.Logger
}

func NewDriver(runner Runner, loader engine.Loader, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{Runner: runner, Loader: loader, Logger: logger}
}

// Process transcribes a single file. A pre-existing transcript short-circuits
// to StatusSkipped unless Force is set. External-process failures are fatal
// and come back as the error; recoverable native engine failures come back
// inside the outcome as StatusFailed so a batch can keep going.
func (d *Driver) Process(ctx context.Context, req Request) (Outcome, error) {
	output := OutputPath(req.File)

	if !req.Force {
		if _, err := os.Stat(output); err == nil {
			d.Logger.Info("transcript exists, skipping", zap.String("file", req.File), zap.String("transcript", output))
			return Outcome{Input: req.File, Output: output, Status: StatusSkipped}, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return Outcome{}, fmt.Errorf("stat transcript %s: %w", output, err)
		}
	} else {
		d.Logger.Info("forcing transcription", zap.String("file", req.File))
	}

	switch req.Strategy {
	case StrategyCLI:
		return d.processCLI(ctx, req, output)
	case StrategyNative:
		return d.processNative(ctx, req, output)
	default:
		return Outcome{}, fmt.Errorf("unknown strategy %q", req.Strategy)
	}
}

func (d *Driver) processCLI(ctx context.Context, req Request, output string) (Outcome, error) {
	if d.Runner == nil {
		return Outcome{}, errors.New("no command runner configured")
	}

	d.Logger.Info("transcribing via whisper cli", zap.String("file", req.File), zap.String("model", req.Model))
	started := time.Now()
	err := d.Runner.Run(ctx, req.File, req.Model, req.Language, output)
	elapsed := time.Since(started)
	if err != nil {
		return Outcome{}, err
	}

	d.Logger.Info("transcription finished", zap.String("transcript", output), zap.Duration("elapsed", elapsed))
	return Outcome{Input: req.File, Output: output, Status: StatusTranscribed, Elapsed: elapsed}, nil
}

func (d *Driver) processNative(ctx context.Context, req Request, output string) (Outcome, error) {
	if d.Loader == nil {
		return Outcome{}, errors.New("no engine loader configured")
	}

	model, err := d.Loader.Load(ctx, req.Model)
	if err != nil {
		return d.nativeFailure(req, 0, err)
	}
	defer func() {
		if err := model.Close(); err != nil {
			d.Logger.Warn("failed to close model", zap.Error(err))
		}
	}()

	d.Logger.Info("transcribing in-process", zap.String("file", req.File), zap.String("model", req.Model))
	started := time.Now()
	result, err := model.Transcribe(ctx, req.File)
	elapsed := time.Since(started)
	if err != nil {
		return d.nativeFailure(req, elapsed, err)
	}

	if err := writeFileAtomic(output, []byte(result.Text)); err != nil {
		return Outcome{}, err
	}

	sidecar, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return Outcome{}, fmt.Errorf("encode sidecar: %w", err)
	}
	if err := writeFileAtomic(SidecarPath(req.File), sidecar); err != nil {
		return Outcome{}, err
	}

	d.Logger.Info("transcription finished", zap.String("transcript", output), zap.Duration("elapsed", elapsed))
	return Outcome{Input: req.File, Output: output, Status: StatusTranscribed, Elapsed: elapsed}, nil
}

// nativeFailure records a recoverable engine failure in the outcome so the
// batch continues; everything else aborts the run.
func (d *Driver) nativeFailure(req Request, elapsed time.Duration, err error) (Outcome, error) {
	var runtimeError *engine.RuntimeError
	if !errors.As(err, &runtimeError) {
		return Outcome{}, err
	}

	d.Logger.Warn("transcription failed",
		zap.String("file", req.File),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
	return Outcome{Input: req.File, Status: StatusFailed, Elapsed: elapsed, Err: err}, nil
}

// writeFileAtomic goes through a temp file and rename so a failed run never
// clobbers a valid prior transcript.
func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".part"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("move %s into place: %w", tempPath, err)
	}
	return nil
}
