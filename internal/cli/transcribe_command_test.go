package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fmueller/scribedir/internal/transcribe"
)

func newTestApp() *appState {
	return &appState{
		ignore:     ".cmproj",
		language:   "en",
		engineName: string(transcribe.StrategyCLI),
		noProgress: true,
	}
}

func TestTranscribeCommandProcessesDiscoveredFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeMediaFile(t, filepath.Join(root, "a.wav"))
	writeMediaFile(t, filepath.Join(root, "nested", "b.mp3"))
	writeMediaFile(t, filepath.Join(root, "notes.txt"))

	out := new(bytes.Buffer)
	app := newTestApp()
	app.out = out

	var requests []transcribe.Request
	app.processFn = func(_ context.Context, req transcribe.Request) (transcribe.Outcome, error) {
		requests = append(requests, req)
		return transcribe.Outcome{Input: req.File, Output: transcribe.OutputPath(req.File), Status: transcribe.StatusTranscribed}, nil
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{root})

	require.NoError(t, cmd.Execute())
	require.Len(t, requests, 2)
	for _, req := range requests {
		require.Equal(t, transcribe.StrategyCLI, req.Strategy)
		require.Equal(t, "en", req.Language)
		require.False(t, req.Force)
	}
	require.Contains(t, out.String(), "Transcribed 2 file(s), skipped 0, failed 0")
}

func TestTranscribeCommandCountsSkippedAndFailed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeMediaFile(t, filepath.Join(root, "a.wav"))
	writeMediaFile(t, filepath.Join(root, "b.wav"))

	out := new(bytes.Buffer)
	app := newTestApp()
	app.out = out

	calls := 0
	app.processFn = func(_ context.Context, req transcribe.Request) (transcribe.Outcome, error) {
		calls++
		if calls == 1 {
			return transcribe.Outcome{Input: req.File, Output: transcribe.OutputPath(req.File), Status: transcribe.StatusSkipped}, nil
		}
		return transcribe.Outcome{Input: req.File, Status: transcribe.StatusFailed, Err: errors.New("engine oom")}, nil
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{root})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "Transcribed 0 file(s), skipped 1, failed 1")
}

func TestTranscribeCommandPropagatesFatalError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeMediaFile(t, filepath.Join(root, "a.wav"))
	writeMediaFile(t, filepath.Join(root, "b.wav"))

	out := new(bytes.Buffer)
	app := newTestApp()
	app.out = out

	calls := 0
	app.processFn = func(_ context.Context, _ transcribe.Request) (transcribe.Outcome, error) {
		calls++
		return transcribe.Outcome{}, errors.New("whisper exited with status 1")
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{root})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "whisper exited")
	require.Equal(t, 1, calls)
}

func TestTranscribeCommandForceFlag(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeMediaFile(t, filepath.Join(root, "a.wav"))

	out := new(bytes.Buffer)
	app := newTestApp()
	app.out = out

	var forced []bool
	app.processFn = func(_ context.Context, req transcribe.Request) (transcribe.Outcome, error) {
		forced = append(forced, req.Force)
		return transcribe.Outcome{Input: req.File, Output: transcribe.OutputPath(req.File), Status: transcribe.StatusTranscribed}, nil
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--force", root})

	require.NoError(t, cmd.Execute())
	require.Equal(t, []bool{true}, forced)
}

func TestTranscribeCommandIgnoreSubstring(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeMediaFile(t, filepath.Join(root, "keep", "a.wav"))
	writeMediaFile(t, filepath.Join(root, "skip_me", "b.wav"))

	out := new(bytes.Buffer)
	app := newTestApp()
	app.out = out

	var processed []string
	app.processFn = func(_ context.Context, req transcribe.Request) (transcribe.Outcome, error) {
		processed = append(processed, req.File)
		return transcribe.Outcome{Input: req.File, Output: transcribe.OutputPath(req.File), Status: transcribe.StatusTranscribed}, nil
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--ignore", "skip_me", root})

	require.NoError(t, cmd.Execute())
	require.Equal(t, []string{filepath.Join(root, "keep", "a.wav")}, processed)
}

func TestTranscribeCommandRejectsUnknownEngine(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	app := newTestApp()
	app.out = out

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--engine", "remote", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown engine")
}

func TestTranscribeCommandSilenceGateSkipsSilentWAV(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	silent := filepath.Join(root, "silent.wav")
	require.NoError(t, os.WriteFile(silent, makePCM16WAVForTest(make([]int16, 16000), 16000, 1), 0o644))

	loud := filepath.Join(root, "loud.wav")
	samples := make([]int16, 16000)
	for i := range samples {
		samples[i] = int16(8000 * (1 - 2*(i%2)))
	}
	require.NoError(t, os.WriteFile(loud, makePCM16WAVForTest(samples, 16000, 1), 0o644))

	out := new(bytes.Buffer)
	app := newTestApp()
	app.out = out
	app.silenceGate = true
	app.silenceDBFS = -65

	var processed []string
	app.processFn = func(_ context.Context, req transcribe.Request) (transcribe.Outcome, error) {
		processed = append(processed, req.File)
		return transcribe.Outcome{Input: req.File, Output: transcribe.OutputPath(req.File), Status: transcribe.StatusTranscribed}, nil
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{root})

	require.NoError(t, cmd.Execute())
	require.Equal(t, []string{loud}, processed)
	require.Contains(t, out.String(), "Transcribed 1 file(s), skipped 1, failed 0")
}

func TestTranscribeCommandEmptyDirectoryIsANoOp(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	app := newTestApp()
	app.out = out
	app.processFn = func(_ context.Context, _ transcribe.Request) (transcribe.Outcome, error) {
		t.Fatal("process must not be called for an empty directory")
		return transcribe.Outcome{}, nil
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{t.TempDir()})

	require.NoError(t, cmd.Execute())
	require.NotContains(t, out.String(), "Transcribed")
}
