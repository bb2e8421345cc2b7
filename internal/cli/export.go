package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newExportCmd dumps the persisted snapshot as indented JSON on stdout,
// regardless of which backend stores it. Useful for piping into jq or for
// moving data between backends.
func newExportCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the current snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			snap, err := st.Load()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
