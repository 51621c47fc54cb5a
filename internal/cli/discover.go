package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiscoverCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [directory]",
		Short: "List media files that transcribe would pick up",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := app.discoverFiles(directoryArg(args))
			if err != nil {
				return err
			}

			for _, file := range files {
				fmt.Fprintln(cmd.OutOrStdout(), file)
			}
			return nil
		},
	}

	bindLoggingFlags(cmd, app)
	bindDiscoveryFlags(cmd, app)

	return cmd
}
