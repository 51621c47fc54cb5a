// Package cli wires the scribedir commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"

	"github.com/fmueller/scribedir/internal/discover"
	"github.com/fmueller/scribedir/internal/logging"
	"github.com/fmueller/scribedir/internal/transcribe"
	"github.com/fmueller/scribedir/internal/version"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool

	pattern string
	ignore  string

	model        string
	modelDir     string
	language     string
	autoDownload bool

	engineName  string
	whisperBin  string
	force       bool
	silenceGate bool
	silenceDBFS float64

	logger *zap.Logger
	out    io.Writer

	// test seams
	discoverFn func(root string, opts discover.Options) ([]string, error)
	processFn  func(ctx context.Context, req transcribe.Request) (transcribe.Outcome, error)
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		ignore:       ".cmproj",
		language:     "en",
		autoDownload: true,
		engineName:   string(transcribe.StrategyCLI),
		silenceDBFS:  -65,
		out:          os.Stdout,
	}
	app.discoverFn = discover.Files

	cmd := &cobra.Command{
		Use:           "scribedir",
		Short:         "Transcribe a directory of audio or video files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.language = sanitizeLanguage(app.language)
			app.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newDiscoverCmd(app))
	cmd.AddCommand(newCPUCountCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.Flags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindDiscoveryFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.pattern, "pattern", app.pattern, "Regex matched against full paths; defaults to common media extensions")
	cmd.Flags().StringVar(&app.ignore, "ignore", app.ignore, "Drop paths containing this substring")
}

func bindModelFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.model, "model", app.model, "Model name (cli engine) or name/ggml path (native engine)")
	cmd.Flags().StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where models are stored")
}

func bindLanguageAndModelDownloadFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.language, "language", app.language, "Language code (en|de|...) for transcription")
	cmd.Flags().BoolVar(&app.autoDownload, "auto-download", app.autoDownload, "Automatically download missing models (native engine)")
}

func bindEngineFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.engineName, "engine", app.engineName, "Transcription engine: cli|native")
	cmd.Flags().StringVar(&app.whisperBin, "whisper-bin", app.whisperBin, "Whisper executable for the cli engine (default: $"+transcribe.ExecutableEnv+" or \"whisper\" on PATH)")
	cmd.Flags().BoolVar(&app.force, "force", app.force, "Re-transcribe even when a transcript already exists")
}

func bindSilenceFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Skip near-silent WAV inputs without transcribing")
	cmd.Flags().Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Silence gate threshold in dBFS")
}

// discoverFiles applies the pattern/ignore flags to a recursive walk.
func (a *appState) discoverFiles(root string) ([]string, error) {
	opts := discover.Options{Ignore: a.ignore}
	if strings.TrimSpace(a.pattern) != "" {
		compiled, err := regexp.Compile(a.pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		opts.Pattern = compiled
	}

	discoverFn := a.discoverFn
	if discoverFn == nil {
		discoverFn = discover.Files
	}
	return discoverFn(root, opts)
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func directoryArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "en"
	}
	return trimmed
}
