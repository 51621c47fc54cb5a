package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fmueller/scribedir/internal/audio"
	"github.com/fmueller/scribedir/internal/download"
	"github.com/fmueller/scribedir/internal/engine"
	"github.com/fmueller/scribedir/internal/platform"
	"github.com/fmueller/scribedir/internal/transcribe"
	"github.com/fmueller/scribedir/internal/whisper"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe [directory]",
		Short: "Discover and transcribe media files under a directory",
		Long: "Walks the directory recursively, transcribes every matching media file " +
			"and writes <file>.transcribed.txt next to each source. Files with an " +
			"existing transcript are skipped unless --force is set.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTranscribe(cmd.Context(), directoryArg(args))
		},
	}

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindDiscoveryFlags(cmd, app)
	bindModelFlags(cmd, app)
	bindLanguageAndModelDownloadFlags(cmd, app)
	bindEngineFlags(cmd, app)
	bindSilenceFlags(cmd, app)

	return cmd
}

// runTranscribe processes the batch strictly one file at a time. A cli-engine
// failure aborts the whole run; a native-engine runtime failure is counted
// and the batch moves on.
func (a *appState) runTranscribe(ctx context.Context, root string) error {
	strategy, err := transcribe.ParseStrategy(a.engineName)
	if err != nil {
		return err
	}

	files, err := a.discoverFiles(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		a.log().Info("no matching media files", zap.String("directory", root))
		return nil
	}
	a.log().Info("discovered media files", zap.String("directory", root), zap.Int("count", len(files)))

	modelArg, err := a.modelArgument(ctx, strategy)
	if err != nil {
		return err
	}

	processFn := a.processFn
	if processFn == nil {
		driver := transcribe.NewDriver(
			transcribe.NewCommandRunner(transcribe.ResolveExecutable(a.whisperBin), a.log()),
			engine.NewWhisperCpp(a.language, a.log()),
			a.log(),
		)
		processFn = driver.Process
	}

	var transcribed, skipped, failed int
	for _, file := range files {
		if a.gatedAsSilent(file) {
			skipped++
			continue
		}

		stopSpinner := startSpinner(a.progressEnabled(), "Transcribing "+filepath.Base(file))
		outcome, err := processFn(ctx, transcribe.Request{
			File:     file,
			Model:    modelArg,
			Language: a.language,
			Force:    a.force,
			Strategy: strategy,
		})
		stopSpinner()
		if err != nil {
			return err
		}

		switch outcome.Status {
		case transcribe.StatusTranscribed:
			transcribed++
		case transcribe.StatusSkipped:
			skipped++
		case transcribe.StatusFailed:
			failed++
		}
	}

	a.log().Info("batch finished",
		zap.Int("transcribed", transcribed),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	fmt.Fprintf(a.outWriter(), "Transcribed %d file(s), skipped %d, failed %d\n", transcribed, skipped, failed)
	return nil
}

// modelArgument returns what the driver should pass to the chosen strategy:
// the model name verbatim for the cli engine, a resolved (and possibly
// downloaded) ggml file path for the native one.
func (a *appState) modelArgument(ctx context.Context, strategy transcribe.Strategy) (string, error) {
	if strategy == transcribe.StrategyCLI {
		if strings.TrimSpace(a.model) == "" {
			return whisper.DefaultModel, nil
		}
		return a.model, nil
	}

	resolved, err := a.ensureModelAvailable(ctx)
	if err != nil {
		return "", err
	}
	return resolved.Path, nil
}

func (a *appState) gatedAsSilent(file string) bool {
	if !a.silenceGate {
		return false
	}
	if !strings.EqualFold(filepath.Ext(file), ".wav") {
		return false
	}

	silent, metrics, err := audio.IsSilentWAV(file, a.silenceDBFS)
	if err != nil {
		a.log().Warn("silence gate analysis failed; transcribing anyway", zap.String("file", file), zap.Error(err))
		return false
	}
	if !silent {
		return false
	}

	a.log().Info("audio considered silent, skipping",
		zap.String("file", file),
		zap.Float64("rms_dbfs", metrics.RMSdBFS),
		zap.Float64("peak_dbfs", metrics.PeakdBFS),
		zap.Float64("threshold_dbfs", a.silenceDBFS),
	)
	return true
}

func (a *appState) modelStorageDir() (string, error) {
	dir, err := platform.ResolveModelDir(a.modelDir)
	if err != nil {
		return "", err
	}
	return dir, nil
}

func (a *appState) ensureModelAvailable(ctx context.Context) (whisper.ResolvedModel, error) {
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	resolved, err := whisper.ResolveModel(a.model, modelDir)
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	if !resolved.NeedsDownload {
		return resolved, nil
	}

	if !a.autoDownload {
		return whisper.ResolvedModel{}, fmt.Errorf("model %q is missing at %s; run `scribedir setup --model %s` or use --auto-download=true", resolved.Name, resolved.Path, resolved.Name)
	}

	a.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
	if err := download.DownloadFile(ctx, download.Options{
		URL:            resolved.URL,
		Destination:    resolved.Path,
		ExpectedSHA256: resolved.SHA256,
		NoProgress:     a.noProgress,
		Logger:         a.log(),
	}); err != nil {
		return whisper.ResolvedModel{}, fmt.Errorf("download model %q: %w", resolved.Name, err)
	}

	resolved.NeedsDownload = false
	return resolved, nil
}
