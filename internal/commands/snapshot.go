package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/fidash/internal/app"
)

func newSnapshotCommand(opts *rootOptions) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run one refresh and print the dashboard as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), opts.configPath, compact, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on a single line")

	return cmd
}

func runSnapshot(ctx context.Context, configPath string, compact bool, out io.Writer) error {
	a, err := app.NewApp(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	refreshCtx, cancel := context.WithTimeout(ctx, a.Config.Refresh.GetTimeout())
	defer cancel()

	snap, err := a.Dashboard.Refresh(refreshCtx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	enc := json.NewEncoder(out)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(snap)
}
