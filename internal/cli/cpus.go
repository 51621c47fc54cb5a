package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fmueller/scribedir/internal/platform"
)

// cpu-count is purely diagnostic; transcription always runs one file at a
// time regardless of how many CPUs the host has.
func newCPUCountCmd(_ *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "cpu-count",
		Short: "Report the logical CPU count and host platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			host := platform.CurrentRuntime()
			fmt.Fprintf(cmd.OutOrStdout(), "CPU Count: %d (%s/%s)\n", runtime.NumCPU(), host.OS, host.Arch)
			return nil
		},
	}
}
