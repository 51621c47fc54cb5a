package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// DefaultExecutable is the whisper CLI expected on PATH.
const DefaultExecutable = "whisper"

// ExecutableEnv overrides the whisper CLI location when the flag is unset.
const ExecutableEnv = "SCRIBEDIR_WHISPER_BIN"

// Runner invokes the external transcription tool for one file, capturing
// its standard output into outputPath.
type Runner interface {
	Run(ctx context.Context, file, model, language, outputPath string) error
}

// ResolveExecutable picks the whisper binary: explicit flag value first,
// then the environment override, then the bare name for PATH lookup.
func ResolveExecutable(override string) string {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv(ExecutableEnv)); env != "" {
		return env
	}
	return DefaultExecutable
}

// CommandRunner shells out to the whisper executable. The tool's stdout is
// redirected verbatim into the output file; a non-zero exit leaves any
// partially written output in place and surfaces as an error.
type CommandRunner struct {
	Executable string
	Logger     *zap.Logger
}

func NewCommandRunner(executable string, logger *zap.Logger) *CommandRunner {
	if executable == "" {
		executable = DefaultExecutable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRunner{Executable: executable, Logger: logger}
}

func (r *CommandRunner) Run(ctx context.Context, file, model, language, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create transcript file: %w", err)
	}
	defer out.Close()

	args := []string{file, "--model", model, "--language", language}
	cmd := exec.CommandContext(ctx, r.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = out
	cmd.Stderr = &stderr

	r.Logger.Debug("running whisper", zap.String("executable", r.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		errText := strings.TrimSpace(stderr.String())
		if errText != "" {
			return fmt.Errorf("%s %s failed: %w (%s)", r.Executable, file, err, errText)
		}
		return fmt.Errorf("%s %s failed: %w", r.Executable, file, err)
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync transcript file: %w", err)
	}

	return nil
}

var _ Runner = (*CommandRunner)(nil)
