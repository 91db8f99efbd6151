// Package commands implements the fidash command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/bobmcallan/fidash/internal/common"
)

type rootOptions struct {
	configPath string
	envFiles   []string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "fidash",
		Short:   "Personal finance dashboard over the Fi MCP tools",
		Version: common.GetFullVersion(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			common.LoadDotEnv(opts.envFiles...)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: $FIDASH_CONFIG, fidash.toml beside the binary, or config/fidash.toml)")
	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, ".env files to load before reading config (default: .env)")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newSnapshotCommand(opts),
		newLoginCommand(opts),
		newMCPCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}
