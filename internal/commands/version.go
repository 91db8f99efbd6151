package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/fidash/internal/common"
)

func newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if asJSON {
				json.NewEncoder(cmd.OutOrStdout()).Encode(common.GetBuildInfo())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), "fidash "+common.GetFullVersion())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
