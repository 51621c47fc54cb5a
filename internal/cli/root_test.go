package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscribeCommandRegistersFlags(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	cmd := newTranscribeCmd(app)

	require.NotNil(t, cmd.Flags().Lookup("pattern"))
	require.NotNil(t, cmd.Flags().Lookup("ignore"))
	require.NotNil(t, cmd.Flags().Lookup("model"))
	require.NotNil(t, cmd.Flags().Lookup("model-dir"))
	require.NotNil(t, cmd.Flags().Lookup("language"))
	require.NotNil(t, cmd.Flags().Lookup("auto-download"))
	require.NotNil(t, cmd.Flags().Lookup("engine"))
	require.NotNil(t, cmd.Flags().Lookup("whisper-bin"))
	require.NotNil(t, cmd.Flags().Lookup("force"))
	require.NotNil(t, cmd.Flags().Lookup("silence-gate"))
	require.NotNil(t, cmd.Flags().Lookup("silence-threshold-dbfs"))
	require.Equal(t, ".cmproj", cmd.Flags().Lookup("ignore").DefValue)
	require.Equal(t, "cli", cmd.Flags().Lookup("engine").DefValue)
	require.Equal(t, "false", cmd.Flags().Lookup("force").DefValue)
	require.Equal(t, "-65", cmd.Flags().Lookup("silence-threshold-dbfs").DefValue)
}

func TestRootHelpParsesSuccessfully(t *testing.T) {
	t.Parallel()

	out, _, err := runCommand(t, []string{"--help"})
	require.NoError(t, err)
	require.Contains(t, out, "transcribe")
	require.Contains(t, out, "discover")
	require.Contains(t, out, "cpu-count")
	require.Contains(t, out, "setup")
}

func TestRootWithoutArgsPrintsHelp(t *testing.T) {
	t.Parallel()

	out, _, err := runCommand(t, []string{})
	require.NoError(t, err)
	require.Contains(t, out, "Transcribe a directory of audio or video files")
}

func TestSubcommandHelpParsesSuccessfully(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "transcribe", args: []string{"transcribe", "--help"}, contains: "Discover and transcribe media files"},
		{name: "discover", args: []string{"discover", "--help"}, contains: "List media files"},
		{name: "cpu-count", args: []string{"cpu-count", "--help"}, contains: "logical CPU count"},
		{name: "setup", args: []string{"setup", "--help"}, contains: "Download and verify speech model assets"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, _, err := runCommand(t, tt.args)
			require.NoError(t, err)
			require.Contains(t, out, tt.contains)
		})
	}
}

func TestDiscoverCommandListsMatches(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeMediaFile(t, filepath.Join(root, "a.wav"))
	writeMediaFile(t, filepath.Join(root, "skip_me", "b.wav"))
	writeMediaFile(t, filepath.Join(root, "notes.txt"))

	out, _, err := runCommand(t, []string{"discover", "--ignore", "skip_me", root})
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Equal(t, []string{filepath.Join(root, "a.wav")}, lines)
}

func TestDiscoverCommandCustomPattern(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeMediaFile(t, filepath.Join(root, "a.opus"))
	writeMediaFile(t, filepath.Join(root, "b.wav"))

	out, _, err := runCommand(t, []string{"discover", "--pattern", `.*\.opus$`, root})
	require.NoError(t, err)
	require.Contains(t, out, "a.opus")
	require.NotContains(t, out, "b.wav")
}

func TestDiscoverCommandInvalidPattern(t *testing.T) {
	t.Parallel()

	_, _, err := runCommand(t, []string{"discover", "--pattern", "([", t.TempDir()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid pattern")
}

func TestCPUCountCommandReportsDiagnostics(t *testing.T) {
	t.Parallel()

	out, _, err := runCommand(t, []string{"cpu-count"})
	require.NoError(t, err)
	require.Contains(t, out, "CPU Count: ")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	cmd := newVersionCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "scribedir v")
}
